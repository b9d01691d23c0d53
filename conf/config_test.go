package conf

import (
	"io/ioutil"
	"os"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\"): %v", err)
	}
	if cfg.DataDir != defaultDataDir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, defaultDataDir)
	}
	if cfg.LogLevel != defaultLogLevel {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, defaultLogLevel)
	}
	if cfg.DBCacheSize != defaultDBCacheSize {
		t.Errorf("DBCacheSize = %d, want %d", cfg.DBCacheSize, defaultDBCacheSize)
	}
}

func TestLoadConfigFromYAMLFile(t *testing.T) {
	f, err := ioutil.TempFile("", "blockidx-conf-*.yml")
	if err != nil {
		t.Fatalf("create temp config: %v", err)
	}
	defer os.Remove(f.Name())

	contents := "datadir: /tmp/blockidx\nloglevel: debug\ndbcachesize: 4096\nregtest: true\n"
	if _, err := f.WriteString(contents); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	f.Close()

	cfg, err := LoadConfig(f.Name())
	if err != nil {
		t.Fatalf("LoadConfig(%q): %v", f.Name(), err)
	}
	if cfg.DataDir != "/tmp/blockidx" {
		t.Errorf("DataDir = %q, want /tmp/blockidx", cfg.DataDir)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.DBCacheSize != 4096 {
		t.Errorf("DBCacheSize = %d, want 4096", cfg.DBCacheSize)
	}
	if !cfg.RegTest {
		t.Errorf("RegTest = false, want true")
	}
}

func TestLoadConfigMissingFileIsNotError(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/path/config.yml"); err != nil {
		t.Errorf("expect a missing config file to fall back to defaults, got error: %v", err)
	}
}
