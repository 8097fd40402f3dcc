package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"qadmin/internal/perm"

	homedir "github.com/mitchellh/go-homedir"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

// isolate points HOME and the working directory at empty temp dirs so no real
// config file is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	homedir.DisableCache = true
	t.Setenv("HOME", home)
	t.Setenv("QADMIN_CONFIG_PATH", "")
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != DefaultBaseURL || cfg.PageSize != DefaultPageSize || cfg.Timeout != DefaultTimeout {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Format != "json" || cfg.File != "" {
		t.Fatalf("format=%q file=%q", cfg.Format, cfg.File)
	}
	if cfg.Import.BatchSize != 100 || cfg.Import.Rate != 2 {
		t.Fatalf("import = %+v", cfg.Import)
	}
	if !cfg.Permissions[perm.ActionCreate] || !cfg.Permissions[perm.ActionDelete] || cfg.Permissions[perm.ActionAll] {
		t.Fatalf("permissions = %v", cfg.Permissions)
	}
	if filepath.Base(cfg.Serve.DB) != "qadmin.sqlite" || filepath.Base(filepath.Dir(cfg.Serve.DB)) != ".qadmin" {
		t.Fatalf("serve db = %q", cfg.Serve.DB)
	}
}

func TestLoadHomeFileAndEnv(t *testing.T) {
	home := isolate(t)
	writeFile(t, home, ".qadmin.yaml", `
base_url: https://qa.example.com/api/v1/
page_size: 25
timeout: 5s
format: table
log_file: ~/qadmin.log
permissions:
  delete: false
import:
  batch_size: 10
`)
	t.Setenv("QADMIN_TOKEN", "tok")
	t.Setenv("QADMIN_PAGE_SIZE", "50")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "https://qa.example.com/api/v1" {
		t.Fatalf("base_url = %q", cfg.BaseURL)
	}
	if cfg.PageSize != 50 {
		t.Fatalf("env should override file, page_size = %d", cfg.PageSize)
	}
	if cfg.Token != "tok" || cfg.Timeout != 5*time.Second || cfg.Format != "table" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.LogFile != filepath.Join(home, "qadmin.log") {
		t.Fatalf("log_file = %q", cfg.LogFile)
	}
	if cfg.Import.BatchSize != 10 {
		t.Fatalf("batch size = %d", cfg.Import.BatchSize)
	}

	c := cfg.Checker()
	if c.CanAccess(perm.DomainQuality, perm.ResourceRejectionCode, perm.ActionDelete) {
		t.Fatalf("delete should be denied")
	}
	if !c.CanAccess(perm.DomainQuality, perm.ResourceRejectionCode, perm.ActionUpdate) {
		t.Fatalf("update should be granted")
	}
}

func TestLoadExplicitPath(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	p := writeFile(t, dir, "custom.yaml", "page_size: 7\n")

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PageSize != 7 || cfg.File != p {
		t.Fatalf("cfg = %+v", cfg)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("missing explicit config should fail")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"page size", "page_size: 0\n"},
		{"format", "format: xml\n"},
		{"batch size", "import:\n  batch_size: -1\n"},
		{"rate", "import:\n  rate: -2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			p := writeFile(t, t.TempDir(), "bad.yaml", tt.body)
			if _, err := Load(p); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestPermissionsAllGrant(t *testing.T) {
	isolate(t)
	t.Setenv("QADMIN_PERMISSIONS_CREATE", "false")
	t.Setenv("QADMIN_PERMISSIONS_UPDATE", "false")
	t.Setenv("QADMIN_PERMISSIONS_DELETE", "false")
	t.Setenv("QADMIN_PERMISSIONS_ALL", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	caps := perm.ForRejectionCodes(cfg.Checker())
	if !caps.Create || !caps.Update || !caps.Delete {
		t.Fatalf("ALL should imply every action: %+v", caps)
	}
}

func TestExpandPath(t *testing.T) {
	home := isolate(t)
	got, err := ExpandPath("~/a/../b.db")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "b.db") {
		t.Fatalf("got %q", got)
	}
	if got, _ := ExpandPath("  "); got != "" {
		t.Fatalf("empty path expanded to %q", got)
	}
}
