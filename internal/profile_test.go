package internal

import (
	"os"
	"path/filepath"
	"testing"
)

func writeProfileFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadProfiles(t *testing.T) {
	t.Parallel()

	path := writeProfileFile(t, `
defaults:
  alias: client
  truststorePassword: trustpass
  keystorePassword: keypass
profiles:
  - name: staging
    bootstrap: staging-broker:9093
  - name: prod
    alias: prod-client
    bootstrap: prod-broker:9093
    trustStrategy: root-only
`)

	profiles, err := LoadProfiles(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(profiles) != 2 {
		t.Fatalf("loaded %d profiles, want 2", len(profiles))
	}

	// WHY: empty fields inherit from defaults, set fields do not.
	staging, err := FindProfile(profiles, "staging")
	if err != nil {
		t.Fatal(err)
	}
	if staging.Alias != "client" || staging.TruststorePassword != "trustpass" {
		t.Errorf("defaults not applied: %+v", staging)
	}
	if staging.Bootstrap != "staging-broker:9093" {
		t.Errorf("bootstrap = %q", staging.Bootstrap)
	}

	prod, err := FindProfile(profiles, "prod")
	if err != nil {
		t.Fatal(err)
	}
	if prod.Alias != "prod-client" {
		t.Errorf("explicit alias overridden: %q", prod.Alias)
	}
	if s, err := prod.Strategy(); err != nil || s != ImportRootOnly {
		t.Errorf("Strategy() = %v, %v", s, err)
	}
	if s, err := staging.Strategy(); err != nil || s != ImportAllCerts {
		t.Errorf("default Strategy() = %v, %v", s, err)
	}
}

func TestFindProfileMissing(t *testing.T) {
	t.Parallel()

	_, err := FindProfile([]Profile{{Name: "staging"}}, "nope")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestProfileStrategyUnknown(t *testing.T) {
	t.Parallel()

	p := &Profile{TrustStrategy: "leaf-only"}
	if _, err := p.Strategy(); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestLoadProfilesBadYAML(t *testing.T) {
	t.Parallel()

	path := writeProfileFile(t, "profiles: [:")
	if _, err := LoadProfiles(path); err == nil {
		t.Fatal("expected parse error")
	}
}
