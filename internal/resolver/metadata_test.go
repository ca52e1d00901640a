package resolver

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/twinproxy/internal/topology"
)

func TestMetadataResolver_PropertyKey_CreatesOnMiss(t *testing.T) {
	svc := newFakeService()
	m := NewMetadataResolver(svc)

	id, err := m.ResolvePropertyKey(context.Background(), "serial", topology.ScopeDevices)
	if err != nil {
		t.Fatalf("ResolvePropertyKey() error = %v", err)
	}
	if id == "" {
		t.Fatal("ResolvePropertyKey() returned empty id")
	}
	if got := svc.callCount("CreatePropertyKey"); got != 1 {
		t.Errorf("CreatePropertyKey calls = %d, want 1", got)
	}
}

func TestMetadataResolver_PropertyKey_Memoized(t *testing.T) {
	svc := newFakeService()
	m := NewMetadataResolver(svc)

	first, err := m.ResolvePropertyKey(context.Background(), "serial", topology.ScopeDevices)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	second, err := m.ResolvePropertyKey(context.Background(), "serial", topology.ScopeDevices)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}

	if first != second {
		t.Errorf("memoized resolve returned %q, want %q", second, first)
	}
	if got := svc.callCount("CreatePropertyKey"); got != 1 {
		t.Errorf("CreatePropertyKey calls = %d, want 1 (second resolve must not create)", got)
	}
	if got := svc.callCount("PropertyKeys"); got != 1 {
		t.Errorf("PropertyKeys calls = %d, want 1 (second resolve must not query)", got)
	}
}

func TestMetadataResolver_PropertyKey_CaseInsensitiveHit(t *testing.T) {
	svc := newFakeService()
	svc.propertyKeys = []topology.PropertyKey{
		{ID: "pk-existing", Name: "Serial", Scope: topology.ScopeDevices},
	}
	m := NewMetadataResolver(svc)

	id, err := m.ResolvePropertyKey(context.Background(), "serial", topology.ScopeDevices)
	if err != nil {
		t.Fatalf("ResolvePropertyKey() error = %v", err)
	}
	if id != "pk-existing" {
		t.Errorf("ResolvePropertyKey() = %q, want existing key %q", id, "pk-existing")
	}
	if got := svc.callCount("CreatePropertyKey"); got != 0 {
		t.Errorf("CreatePropertyKey calls = %d, want 0", got)
	}
}

func TestMetadataResolver_PropertyKey_ScopesIndependent(t *testing.T) {
	svc := newFakeService()
	m := NewMetadataResolver(svc)

	deviceKey, err := m.ResolvePropertyKey(context.Background(), "zone", topology.ScopeDevices)
	if err != nil {
		t.Fatalf("device scope resolve: %v", err)
	}
	spaceKey, err := m.ResolvePropertyKey(context.Background(), "zone", topology.ScopeSpaces)
	if err != nil {
		t.Fatalf("space scope resolve: %v", err)
	}

	if deviceKey == spaceKey {
		t.Errorf("same key id %q across scopes, want distinct keys", deviceKey)
	}
}

func TestMetadataResolver_PropertyKey_EmptyName(t *testing.T) {
	m := NewMetadataResolver(newFakeService())

	if _, err := m.ResolvePropertyKey(context.Background(), "", topology.ScopeDevices); !errors.Is(err, ErrEmptyName) {
		t.Errorf("ResolvePropertyKey(\"\") error = %v, want ErrEmptyName", err)
	}
}

func TestMetadataResolver_Type_WhitespaceStripped(t *testing.T) {
	svc := newFakeService()
	m := NewMetadataResolver(svc)

	id, err := m.ResolveType(context.Background(), "Temperature Sensor", topology.CategoryDeviceType)
	if err != nil {
		t.Fatalf("ResolveType() error = %v", err)
	}
	if id == "" {
		t.Fatal("ResolveType() returned empty id")
	}

	created := svc.types[0]
	if created.Name != "TemperatureSensor" {
		t.Errorf("canonical name = %q, want %q", created.Name, "TemperatureSensor")
	}
	if created.FriendlyName != "Temperature Sensor" {
		t.Errorf("friendly name = %q, want raw %q", created.FriendlyName, "Temperature Sensor")
	}

	// The stripped form memoizes against the spaced form.
	again, err := m.ResolveType(context.Background(), "TemperatureSensor", topology.CategoryDeviceType)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if again != id {
		t.Errorf("stripped-name resolve = %q, want %q", again, id)
	}
	if got := svc.callCount("CreateType"); got != 1 {
		t.Errorf("CreateType calls = %d, want 1", got)
	}
}

// racingService simulates losing a create race: the first type query
// sees nothing, the create conflicts, and the re-query finds the
// winner another process created in between.
type racingService struct {
	*fakeService
	typeQueries int
}

func (r *racingService) Types(ctx context.Context, category topology.TypeCategory, name string) ([]topology.ExtendedType, error) {
	r.typeQueries++
	if r.typeQueries == 1 {
		return nil, nil
	}
	return r.fakeService.Types(ctx, category, name)
}

func (r *racingService) CreateType(context.Context, topology.CreateTypeRequest) (string, error) {
	return "", topology.ErrConflict
}

func TestMetadataResolver_Type_ConflictAdoptsWinner(t *testing.T) {
	svc := newFakeService()
	svc.types = []topology.ExtendedType{
		{ID: "type-winner", Name: "Lux", Category: topology.CategoryDeviceType},
	}
	m := NewMetadataResolver(&racingService{fakeService: svc})

	id, err := m.ResolveType(context.Background(), "Lux", topology.CategoryDeviceType)
	if err != nil {
		t.Fatalf("ResolveType() error = %v", err)
	}
	if id != "type-winner" {
		t.Errorf("ResolveType() = %q, want winner %q", id, "type-winner")
	}
}

func TestMetadataResolver_Type_ConflictWinnerMissing(t *testing.T) {
	empty := &racingService{fakeService: newFakeService()}
	m := NewMetadataResolver(empty)

	// Conflict on create but the winner never becomes queryable.
	empty.typeQueries = -1 // both queries return the fake's empty set

	_, err := m.ResolveType(context.Background(), "Lux", topology.CategoryDeviceType)
	if !errors.Is(err, ErrMetadataUnresolved) {
		t.Errorf("ResolveType() error = %v, want ErrMetadataUnresolved", err)
	}
}

func TestMetadataResolver_ConcurrentResolvesCreateOnce(t *testing.T) {
	svc := newFakeService()
	m := NewMetadataResolver(svc)

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			id, err := m.ResolvePropertyKey(context.Background(), "firmware", topology.ScopeDevices)
			if err != nil {
				t.Errorf("concurrent resolve: %v", err)
				return
			}
			ids[slot] = id
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		if id != ids[0] {
			t.Fatalf("concurrent resolves disagree: %v", ids)
		}
	}
	if got := svc.callCount("CreatePropertyKey"); got != 1 {
		t.Errorf("CreatePropertyKey calls = %d, want exactly 1", got)
	}
}
