package resolver

import (
	"context"
	"sync"
	"testing"

	"github.com/nerrad567/twinproxy/internal/infrastructure/config"
	"github.com/nerrad567/twinproxy/internal/topology"
)

func TestGatewayResolver_Tenant(t *testing.T) {
	g := NewGatewayResolver(newFakeService(), config.TenantConfig{ID: "tenant-1"})

	if got := g.Tenant(); got != "tenant-1" {
		t.Errorf("Tenant() = %q, want %q", got, "tenant-1")
	}
}

func TestGatewayResolver_ConfiguredDefault(t *testing.T) {
	svc := newFakeService()
	g := NewGatewayResolver(svc, config.TenantConfig{
		ID:               "tenant-1",
		DefaultGatewayID: "gw-static",
	})

	id, err := g.Gateway(context.Background())
	if err != nil {
		t.Fatalf("Gateway() error = %v", err)
	}
	if id != "gw-static" {
		t.Errorf("Gateway() = %q, want configured %q", id, "gw-static")
	}
	if got := svc.callCount("Devices"); got != 0 {
		t.Errorf("Devices calls = %d, want 0 for a configured gateway", got)
	}
}

func TestGatewayResolver_FindsExistingDevice(t *testing.T) {
	svc := newFakeService()
	svc.devices = []topology.Device{
		{ID: "gw-existing", Name: DefaultGatewayName, HardwareID: DefaultGatewayName},
	}
	g := NewGatewayResolver(svc, config.TenantConfig{ID: "tenant-1"})

	id, err := g.Gateway(context.Background())
	if err != nil {
		t.Fatalf("Gateway() error = %v", err)
	}
	if id != "gw-existing" {
		t.Errorf("Gateway() = %q, want %q", id, "gw-existing")
	}
	if got := svc.callCount("CreateDevice"); got != 0 {
		t.Errorf("CreateDevice calls = %d, want 0", got)
	}
}

func TestGatewayResolver_CreatesUnderTenantRoot(t *testing.T) {
	svc := newFakeService()
	g := NewGatewayResolver(svc, config.TenantConfig{ID: "tenant-1"})

	id, err := g.Gateway(context.Background())
	if err != nil {
		t.Fatalf("Gateway() error = %v", err)
	}
	if id == "" {
		t.Fatal("Gateway() returned empty id")
	}

	created := svc.devices[0]
	if created.Name != DefaultGatewayName || created.HardwareID != DefaultGatewayName {
		t.Errorf("gateway device = %+v, want name and hardware id %q", created, DefaultGatewayName)
	}
	if created.SpaceID != "tenant-1" {
		t.Errorf("gateway parent = %q, want tenant root %q", created.SpaceID, "tenant-1")
	}
}

func TestGatewayResolver_MemoizedAfterFirstAccess(t *testing.T) {
	svc := newFakeService()
	g := NewGatewayResolver(svc, config.TenantConfig{ID: "tenant-1"})

	first, err := g.Gateway(context.Background())
	if err != nil {
		t.Fatalf("first Gateway(): %v", err)
	}
	second, err := g.Gateway(context.Background())
	if err != nil {
		t.Fatalf("second Gateway(): %v", err)
	}

	if first != second {
		t.Errorf("Gateway() = %q then %q, want stable id", first, second)
	}
	if got := svc.callCount("CreateDevice"); got != 1 {
		t.Errorf("CreateDevice calls = %d, want 1", got)
	}
	if got := svc.callCount("Devices"); got != 1 {
		t.Errorf("Devices calls = %d, want 1 (memoized access must not query)", got)
	}
}

func TestGatewayResolver_ConcurrentFirstAccessCreatesOnce(t *testing.T) {
	svc := newFakeService()
	g := NewGatewayResolver(svc, config.TenantConfig{ID: "tenant-1"})

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			id, err := g.Gateway(context.Background())
			if err != nil {
				t.Errorf("concurrent Gateway(): %v", err)
				return
			}
			ids[slot] = id
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		if id != ids[0] {
			t.Fatalf("concurrent Gateway() results disagree: %v", ids)
		}
	}
	if got := svc.callCount("CreateDevice"); got != 1 {
		t.Errorf("CreateDevice calls = %d, want exactly 1", got)
	}
}

func TestGatewayResolver_FailureIsRetriable(t *testing.T) {
	svc := newFakeService()
	svc.failWith("Devices", topology.ErrRequestFailed)
	g := NewGatewayResolver(svc, config.TenantConfig{ID: "tenant-1"})

	if _, err := g.Gateway(context.Background()); err == nil {
		t.Fatal("Gateway() with failing service returned nil error")
	}

	// A failed first access must not poison the memo.
	svc.failWith("Devices", nil)
	id, err := g.Gateway(context.Background())
	if err != nil {
		t.Fatalf("Gateway() after recovery: %v", err)
	}
	if id == "" {
		t.Error("Gateway() after recovery returned empty id")
	}
}
