package backend

import (
	"testing"

	"github.com/gogpu/subdiv"
)

// stubBackend is a registry test double.
type stubBackend struct {
	name string
}

func (b *stubBackend) Name() string { return b.name }
func (b *stubBackend) Init() error  { return nil }
func (b *stubBackend) Close()       {}

func (b *stubBackend) ApplyStencils(src []float32, srcDesc subdiv.BufferDescriptor,
	dst []float32, dstDesc subdiv.BufferDescriptor, table *subdiv.StencilTable) error {
	return nil
}

func (b *stubBackend) EvalPatches(src []float32, srcDesc subdiv.BufferDescriptor,
	dst []float32, dstDesc subdiv.BufferDescriptor,
	coords []subdiv.PatchCoord, table *subdiv.PatchTable) error {
	return nil
}

func register(t *testing.T, name string) {
	t.Helper()
	Register(name, func() Backend { return &stubBackend{name: name} })
	t.Cleanup(func() { Unregister(name) })
}

func TestRegistryRegisterAndGet(t *testing.T) {
	register(t, "stub")

	if !IsRegistered("stub") {
		t.Error("stub backend should be registered")
	}

	b := Get("stub")
	if b == nil {
		t.Fatal("Get(stub) returned nil")
	}
	if b.Name() != "stub" {
		t.Errorf("Get(stub).Name() = %q, want %q", b.Name(), "stub")
	}
}

func TestRegistryGetUnregistered(t *testing.T) {
	b := Get("nonexistent")
	if b != nil {
		t.Error("Get(nonexistent) should return nil")
	}
}

func TestRegistryAvailable(t *testing.T) {
	register(t, "stub")

	found := false
	for _, name := range Available() {
		if name == "stub" {
			found = true
			break
		}
	}
	if !found {
		t.Error("Available() should include 'stub'")
	}
}

func TestRegistryDefaultPriority(t *testing.T) {
	// With both priority names registered, wgpu wins.
	register(t, BackendCPU)
	register(t, BackendWGPU)

	b := Default()
	if b == nil {
		t.Fatal("Default() returned nil")
	}
	if b.Name() != BackendWGPU {
		t.Errorf("Default().Name() = %q, want %q", b.Name(), BackendWGPU)
	}

	Unregister(BackendWGPU)
	b = Default()
	if b == nil || b.Name() != BackendCPU {
		t.Errorf("Default() after wgpu removal = %v, want cpu", b)
	}
}

func TestRegistryDefaultFallback(t *testing.T) {
	// A backend outside the priority list is still reachable.
	register(t, "exotic")

	b := Default()
	if b == nil {
		t.Fatal("Default() returned nil")
	}
	if b.Name() != "exotic" {
		t.Errorf("Default().Name() = %q, want %q", b.Name(), "exotic")
	}
}

func TestRegistryInitDefault(t *testing.T) {
	register(t, BackendCPU)

	b, err := InitDefault()
	if err != nil {
		t.Fatalf("InitDefault() error = %v", err)
	}
	if b == nil {
		t.Fatal("InitDefault() returned nil backend")
	}
	b.Close()
}

func TestRegistryInitDefaultEmpty(t *testing.T) {
	// No registration in this test; the shared registry may hold
	// stubs from parallel tests, so snapshot and restore.
	registryMu.Lock()
	saved := backends
	backends = make(map[string]BackendFactory)
	registryMu.Unlock()
	defer func() {
		registryMu.Lock()
		backends = saved
		registryMu.Unlock()
	}()

	if _, err := InitDefault(); err != ErrBackendNotAvailable {
		t.Errorf("InitDefault() error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestRegistryUnregister(t *testing.T) {
	Register("test-backend", func() Backend { return &stubBackend{name: "test-backend"} })

	if !IsRegistered("test-backend") {
		t.Error("test-backend should be registered")
	}

	Unregister("test-backend")

	if IsRegistered("test-backend") {
		t.Error("test-backend should be unregistered")
	}
}

func TestRegistryMustDefault(t *testing.T) {
	register(t, BackendCPU)

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("MustDefault() panicked: %v", r)
		}
	}()
	b := MustDefault()
	if b == nil {
		t.Error("MustDefault() returned nil")
	}
}
