package actions

import (
	"bytes"
	"io/ioutil"
	"os"
	"strings"
	"testing"

	"github.com/relloyd/pgshift/config"
)

func newTempConfigFile(t *testing.T) *config.File {
	dir, err := ioutil.TempDir("", "pgshift-defaults")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return config.NewFileWithDir(dir, config.MainFileFullName)
}

func TestRunDefaultAdd(t *testing.T) {
	f := newTempConfigFile(t)
	out := &bytes.Buffer{}
	if err := RunDefaultAdd(&DefaultAddConfig{ConfigFile: f, Key: "workers", Value: "4", Out: out}); err != nil {
		t.Fatal("unexpected error adding key: ", err)
	}
	err := RunDefaultAdd(&DefaultAddConfig{ConfigFile: f, Key: "workers", Value: "8", Out: out})
	if err == nil {
		t.Fatal("expected an error adding an existing key without force")
	}
	if err := RunDefaultAdd(&DefaultAddConfig{ConfigFile: f, Key: "workers", Value: "8", Force: true, Out: out}); err != nil {
		t.Fatal("unexpected error forcing key: ", err)
	}
	reread := config.NewFileWithDir(f.Dirname, f.FileName)
	var got string
	if err := reread.Get("workers", &got); err != nil || got != "8" {
		t.Fatalf("expected workers=8 on disk; got %q, %v", got, err)
	}
}

func TestRunDefaultAddMissingValue(t *testing.T) {
	err := RunDefaultAdd(&DefaultAddConfig{ConfigFile: newTempConfigFile(t), Key: "workers", Out: &bytes.Buffer{}})
	if err == nil || !strings.Contains(err.Error(), "value") {
		t.Fatal("expected a validation error naming the value, got: ", err)
	}
}

func TestRunDefaultListAndRemove(t *testing.T) {
	f := newTempConfigFile(t)
	for k, v := range map[string]string{"target-schema": "analytics", "workers": "2"} {
		if err := f.Set(k, v); err != nil {
			t.Fatal(err)
		}
	}
	out := &bytes.Buffer{}
	if err := RunDefaultList(&DefaultListConfig{ConfigFile: f, Out: out}); err != nil {
		t.Fatal(err)
	}
	if out.String() != "target-schema=analytics\nworkers=2\n" {
		t.Fatalf("unexpected list output: %q", out.String())
	}
	if err := RunDefaultRemove(&DefaultRemoveConfig{ConfigFile: f, Key: "workers", Out: out}); err != nil {
		t.Fatal(err)
	}
	if err := RunDefaultRemove(&DefaultRemoveConfig{ConfigFile: f, Key: "workers", Out: out}); err == nil {
		t.Fatal("expected an error removing a missing key")
	}
}
