package resolver

import (
	"context"
	"testing"

	"github.com/nerrad567/twinproxy/internal/cache"
	"github.com/nerrad567/twinproxy/internal/topology"
)

func newSpaceResolver(svc topology.Service) *SpaceResolver {
	return NewSpaceResolver(svc, NewMetadataResolver(svc), SpaceCaches{
		ByName: cache.NewStore[topology.Space]("spaces-by-name"),
		ByID:   cache.NewStore[topology.Space]("spaces-by-id"),
	})
}

func TestSpaceResolver_CreateUnderParent(t *testing.T) {
	svc := newFakeService()
	r := newSpaceResolver(svc)

	id, err := r.Create(context.Background(), "Floor1", "tenant-1",
		nil,
		map[string]string{"status": "Active", "type": "Floor"},
	)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if id == "" {
		t.Fatal("Create() returned empty id")
	}

	created := svc.spaces[0]
	if created.ParentID != "tenant-1" {
		t.Errorf("parent = %q, want tenant root %q", created.ParentID, "tenant-1")
	}
	if created.StatusID == "" || created.TypeID == "" {
		t.Error("status/type names not resolved to ids")
	}

	// Space status resolves in its own category, distinct from type.
	if created.StatusID == created.TypeID {
		t.Errorf("status id %q equals type id, want distinct categories", created.StatusID)
	}
}

func TestSpaceResolver_DualIndexCoherence(t *testing.T) {
	svc := newFakeService()
	svc.spaces = []topology.Space{
		{ID: "space-1", Name: "Floor1", ParentID: "tenant-1"},
	}
	r := newSpaceResolver(svc)

	byName, err := r.GetByName(context.Background(), "Floor1")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if byName == nil || byName.ParentID != "tenant-1" {
		t.Fatalf("GetByName() = %+v, want Floor1 under tenant-1", byName)
	}

	queriesAfterName := svc.callCount("Spaces")

	byID, err := r.GetByID(context.Background(), "space-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if byID == nil || byID.Name != "Floor1" {
		t.Fatalf("GetByID() = %+v, want Floor1", byID)
	}
	if got := svc.callCount("Spaces"); got != queriesAfterName {
		t.Errorf("GetByID after GetByName issued %d extra queries, want 0", got-queriesAfterName)
	}
}

func TestSpaceResolver_DeleteThenLookupReQueries(t *testing.T) {
	svc := newFakeService()
	svc.spaces = []topology.Space{
		{ID: "space-1", Name: "Floor1", ParentID: "tenant-1"},
	}
	r := newSpaceResolver(svc)

	if _, err := r.GetByName(context.Background(), "Floor1"); err != nil {
		t.Fatalf("warming lookup: %v", err)
	}

	if err := r.DeleteByName(context.Background(), "Floor1"); err != nil {
		t.Fatalf("DeleteByName() error = %v", err)
	}

	space, err := r.GetByName(context.Background(), "Floor1")
	if err != nil {
		t.Fatalf("GetByName() after delete: %v", err)
	}
	if space != nil {
		t.Errorf("GetByName() after delete = %+v, want nil from a fresh query", space)
	}
}

func TestSpaceResolver_DeleteByName_AbsentSucceeds(t *testing.T) {
	svc := newFakeService()
	r := newSpaceResolver(svc)

	if err := r.DeleteByName(context.Background(), "ghost"); err != nil {
		t.Errorf("DeleteByName() of absent space = %v, want nil", err)
	}
	if got := svc.callCount("DeleteSpace"); got != 0 {
		t.Errorf("DeleteSpace calls = %d, want 0", got)
	}
}

func TestSpaceResolver_UpdateComplete_EmptyAttributesResets(t *testing.T) {
	svc := newFakeService()
	svc.spaces = []topology.Space{
		{ID: "space-1", Name: "Floor1", Description: "old", StatusID: "status-active"},
	}
	r := newSpaceResolver(svc)

	if err := r.UpdateComplete(context.Background(), "space-1", "tenant-1", nil, nil); err != nil {
		t.Fatalf("UpdateComplete() error = %v", err)
	}

	updated := svc.spaces[0]
	if updated.Description != "" {
		t.Errorf("description = %q, want reset to empty", updated.Description)
	}
	if updated.StatusID == "status-active" || updated.StatusID == "" {
		t.Errorf("status id = %q, want the None sentinel id", updated.StatusID)
	}
	if updated.TypeID == "" || updated.SubtypeID == "" {
		t.Error("type/subtype not reset to the None sentinel ids")
	}

	// None resolved per category: status, type and subtype.
	if got := svc.callCount("CreateType"); got != 3 {
		t.Errorf("CreateType calls = %d, want 3", got)
	}
}

func TestSpaceResolver_Invalidate(t *testing.T) {
	svc := newFakeService()
	svc.spaces = []topology.Space{
		{ID: "space-1", Name: "Floor1"},
	}
	r := newSpaceResolver(svc)

	if _, err := r.GetByID(context.Background(), "space-1"); err != nil {
		t.Fatalf("warming lookup: %v", err)
	}

	if !r.Invalidate("space-1") {
		t.Fatal("Invalidate() of cached space returned false")
	}
	for _, stats := range r.CacheStats() {
		if stats.Size != 0 {
			t.Errorf("store %q holds %d entries after invalidate, want 0", stats.Name, stats.Size)
		}
	}
	if r.Invalidate("space-1") {
		t.Error("Invalidate() of uncached space returned true")
	}
}
