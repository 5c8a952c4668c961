package visaged

import (
	"flag"
	"testing"
	"time"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("visaged", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 8095 {
		t.Fatalf("port = %d, want 8095", cfg.Port)
	}
	if cfg.DBPath != "data/visage.db" {
		t.Fatalf("db path = %q, want default", cfg.DBPath)
	}
	if cfg.RebuildInterval != 30*time.Second {
		t.Fatalf("rebuild interval = %v, want 30s", cfg.RebuildInterval)
	}
}

func TestParseConfigEnvAndFlags(t *testing.T) {
	fs := flag.NewFlagSet("visaged", flag.ContinueOnError)
	t.Setenv("VISAGE_PORT", "9001")
	t.Setenv("VISAGE_HOLDER", "host-a")

	cfg, err := ParseConfig(fs, []string{"-db-path", "/tmp/visage.db", "-rebuild-interval", "5s"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 9001 {
		t.Fatalf("port = %d, want env value", cfg.Port)
	}
	if cfg.Holder != "host-a" {
		t.Fatalf("holder = %q, want env value", cfg.Holder)
	}
	if cfg.DBPath != "/tmp/visage.db" {
		t.Fatalf("db path = %q, want flag override", cfg.DBPath)
	}
	if cfg.RebuildInterval != 5*time.Second {
		t.Fatalf("rebuild interval = %v, want flag override", cfg.RebuildInterval)
	}
}
