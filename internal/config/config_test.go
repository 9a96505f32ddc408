package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	envs := Default()
	for _, name := range []string{"kvm", "cvm", "cvm_es", "cvm_snp"} {
		params, ok := envs[name]
		if !ok {
			t.Fatalf("missing default environment %q", name)
		}
		if params.Host != "localhost" || params.Port != 5432 {
			t.Errorf("%s: got %s:%d, want localhost:5432", name, params.Host, params.Port)
		}
		if params.Database != "imdbload" || params.User != "postgres" {
			t.Errorf("%s: got db=%s user=%s", name, params.Database, params.User)
		}
	}
}

func TestApplyOverlay(t *testing.T) {
	t.Cleanup(func() { Use(Default()) })

	path := filepath.Join(t.TempDir(), "envs.json")
	content := `{
  "environments": {
    "CVM": {"host": "10.0.0.7", "port": 5433, "database": "imdbload", "user": "bench", "password": "secret"},
    "extra": {"host": "10.0.0.8", "port": 5432, "database": "tpch", "user": "postgres"}
  }
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Apply(path); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	cvm := Lookup("cvm")
	if cvm.Host != "10.0.0.7" || cvm.Port != 5433 || cvm.User != "bench" {
		t.Errorf("overlay not applied: %+v", cvm)
	}
	extra := Lookup("EXTRA")
	if extra.Database != "tpch" {
		t.Errorf("new environment not applied: %+v", extra)
	}
	// Untouched defaults survive the overlay.
	kvm := Lookup("kvm")
	if kvm.Host != "localhost" {
		t.Errorf("default clobbered: %+v", kvm)
	}
}

func TestApplyMissingFile(t *testing.T) {
	if err := Apply(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestApplyEmptyPathResets(t *testing.T) {
	Use(Environments{"kvm": {Host: "elsewhere", Port: 1}})
	if err := Apply(""); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := Lookup("kvm").Host; got != "localhost" {
		t.Errorf("reset did not restore defaults: %s", got)
	}
}

func TestLookupFallback(t *testing.T) {
	t.Cleanup(func() { Use(Default()) })
	Use(Default())

	got := Lookup("no_such_env")
	if got.Host != "localhost" || got.Database != "imdbload" {
		t.Errorf("unknown environment should fall back to kvm, got %+v", got)
	}
	if Lookup("KVM").Host != "localhost" {
		t.Error("lookup should be case-insensitive")
	}
}
