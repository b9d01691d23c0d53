package log

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"testing"
)

func TestGetLevelKnownAndUnknownNames(t *testing.T) {
	for name := range levelMap {
		if lvl := GetLevel(name); lvl < 0 || lvl > 7 {
			t.Errorf("GetLevel(%q) = %d, want a value in [0,7]", name, lvl)
		}
	}
	if lvl := GetLevel("not-a-level"); lvl != defaultLogLevel {
		t.Errorf("GetLevel(unknown) = %d, want default %d", lvl, defaultLogLevel)
	}
}

func TestInitWritesToConfiguredFile(t *testing.T) {
	path, err := ioutil.TempDir("", "logtest")
	if err != nil {
		t.Fatalf("generate temp path failed: %s", err)
	}
	defer os.RemoveAll(path)

	filename := path + "/debug.log"
	config, err := json.Marshal(struct {
		Filename string `json:"filename"`
		Level    int    `json:"level"`
	}{Filename: filename, Level: GetLevel("debug")})
	if err != nil {
		t.Fatalf("marshal log config: %s", err)
	}

	if err := Init(string(config)); err != nil {
		t.Fatalf("Init: %s", err)
	}
	Info("hello %s", "world")
	logger.Flush()

	if _, err := os.Stat(filename); err != nil {
		t.Errorf("expect log file to exist at %s: %s", filename, err)
	}
}
