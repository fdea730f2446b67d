package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Host != DefaultHost || cfg.Port != DefaultPort || cfg.History != DefaultHistory {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Path() != "" {
		t.Errorf("path = %q, want empty for defaults", cfg.Path())
	}
	if cfg.Addr() != "localhost:7331" {
		t.Errorf("addr = %q", cfg.Addr())
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := writeConfig(t, `{
		"name": "demo",
		"port": 9000,
		"history": 50,
		"readTimeout": 30,
		"indexAlwaysNotifies": false
	}`)
	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "demo" || cfg.Port != 9000 || cfg.History != 50 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Host != DefaultHost {
		t.Errorf("host = %q, want default %q", cfg.Host, DefaultHost)
	}
	if cfg.ReadTimeout() != 30*time.Second {
		t.Errorf("readTimeout = %v", cfg.ReadTimeout())
	}
	if cfg.WriteTimeout() != 10*time.Second {
		t.Errorf("writeTimeout = %v, want default", cfg.WriteTimeout())
	}
	if cfg.IndexAlwaysNotifies == nil || *cfg.IndexAlwaysNotifies {
		t.Error("indexAlwaysNotifies should be set to false")
	}
	if cfg.Path() == "" {
		t.Error("path should record the loaded file")
	}
}

func TestLoadMalformed(t *testing.T) {
	dir := writeConfig(t, `{broken`)
	if _, err := Load(dir); err == nil {
		t.Fatal("malformed config should error")
	}
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"port out of range": `{"port": 99999}`,
		"zero history":      `{"history": -1}`,
		"zero timeout":      `{"readTimeout": -5}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			dir := writeConfig(t, content)
			if _, err := Load(dir); err == nil {
				t.Fatal("invalid config should error")
			}
		})
	}
}
