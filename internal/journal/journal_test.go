package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/twinproxy/internal/infrastructure/database"
	_ "github.com/nerrad567/twinproxy/migrations" // registers embedded migrations
)

// newTestRepository opens a throwaway migrated database.
func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "journal.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating database: %v", err)
	}

	return NewSQLiteRepository(db.DB)
}

func TestRepository_CreateGeneratesIDAndTimestamp(t *testing.T) {
	repo := newTestRepository(t)

	entry := &Entry{
		EntityType: "Device",
		AccessType: "Update",
		EntityID:   "dev-1",
		Evicted:    true,
	}
	if err := repo.Create(context.Background(), entry); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if entry.ID == "" {
		t.Error("Create() did not generate an id")
	}
	if entry.CreatedAt.IsZero() {
		t.Error("Create() did not set a timestamp")
	}
}

func TestRepository_ListRoundTrip(t *testing.T) {
	repo := newTestRepository(t)

	entry := &Entry{
		EntityType:    "Space",
		AccessType:    "Delete",
		EntityID:      "space-1",
		Evicted:       false,
		CorrelationID: "corr-1",
	}
	if err := repo.Create(context.Background(), entry); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	result, err := repo.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if result.Total != 1 || len(result.Entries) != 1 {
		t.Fatalf("List() total/entries = %d/%d, want 1/1", result.Total, len(result.Entries))
	}

	got := result.Entries[0]
	if got.EntityType != "Space" || got.AccessType != "Delete" || got.EntityID != "space-1" {
		t.Errorf("entry = %+v, want the stored Space/Delete/space-1", got)
	}
	if got.Evicted {
		t.Error("entry.Evicted = true, want false")
	}
	if got.CorrelationID != "corr-1" {
		t.Errorf("correlation id = %q, want %q", got.CorrelationID, "corr-1")
	}
}

func TestRepository_ListFilters(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	seed := []Entry{
		{EntityType: "Device", AccessType: "Update", EntityID: "dev-1", Evicted: true},
		{EntityType: "Device", AccessType: "Delete", EntityID: "dev-2"},
		{EntityType: "Space", AccessType: "Update", EntityID: "space-1"},
	}
	for i := range seed {
		if err := repo.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("seeding entry %d: %v", i, err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"no filter", Filter{}, 3},
		{"by entity type", Filter{EntityType: "Device"}, 2},
		{"by access type", Filter{AccessType: "Update"}, 2},
		{"by entity id", Filter{EntityID: "space-1"}, 1},
		{"combined", Filter{EntityType: "Device", AccessType: "Delete"}, 1},
		{"no match", Filter{EntityID: "ghost"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if result.Total != tt.want {
				t.Errorf("List() total = %d, want %d", result.Total, tt.want)
			}
		})
	}
}

func TestRepository_ListPagination(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		entry := &Entry{
			EntityType: "Device",
			AccessType: "Update",
			EntityID:   "dev-1",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(ctx, entry); err != nil {
			t.Fatalf("seeding entry %d: %v", i, err)
		}
	}

	page, err := repo.List(ctx, Filter{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if page.Total != 5 {
		t.Errorf("total = %d, want 5", page.Total)
	}
	if len(page.Entries) != 2 {
		t.Errorf("page size = %d, want 2", len(page.Entries))
	}
	if page.Limit != 2 || page.Offset != 2 {
		t.Errorf("limit/offset echoed as %d/%d, want 2/2", page.Limit, page.Offset)
	}
}
