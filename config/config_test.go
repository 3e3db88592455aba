package config

import (
	"io/ioutil"
	"os"
	"path"
	"reflect"
	"testing"

	"github.com/pkg/errors"
	tabledefinition "github.com/relloyd/pgshift/table-definition"
)

func TestFileSetGetDelete(t *testing.T) {
	dir, err := ioutil.TempDir("", "pgshift-config-")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	f := NewFileWithDir(path.Join(dir, "nested"), MainFileFullName)
	var s string
	if err := f.Get("target-schema", &s); !errors.As(err, &KeyNotFoundError{}) {
		t.Fatalf("expected KeyNotFoundError from a missing file; got %v", err)
	}
	if err := f.Set("target-schema", "analytics"); err != nil {
		t.Fatal(err)
	}
	if err := f.Set("workers", 4); err != nil {
		t.Fatal(err)
	}
	// Re-read from disk.
	f = NewFileWithDir(path.Join(dir, "nested"), MainFileFullName)
	if err := f.Get("target-schema", &s); err != nil || s != "analytics" {
		t.Fatalf("expected analytics; got %q, %v", s, err)
	}
	var i int
	if err := f.Get("workers", &i); err != nil || i != 4 {
		t.Fatalf("expected 4; got %v, %v", i, err)
	}
	if err := f.Get("workers", &s); err != nil || s != "4" {
		t.Fatalf("expected weakly typed string 4; got %q, %v", s, err)
	}
	keys, err := f.GetAllKeys()
	if err != nil || !reflect.DeepEqual(keys, []string{"target-schema", "workers"}) {
		t.Fatalf("unexpected keys %v, %v", keys, err)
	}
	if err := f.Delete("workers"); err != nil {
		t.Fatal(err)
	}
	if err := f.Delete("workers"); !errors.As(err, &KeyNotFoundError{}) {
		t.Fatalf("expected KeyNotFoundError; got %v", err)
	}
	if err := f.Get("x", s); err == nil {
		t.Fatal("expected error for non-pointer output")
	}
}

func TestLoadKeyConfig(t *testing.T) {
	dir, err := ioutil.TempDir("", "pgshift-keys-")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	fileName := path.Join(dir, "keys.yaml")
	data := "distKeys:\n  films: id\nsortKeys:\n  films: [description, id]\n"
	if err := ioutil.WriteFile(fileName, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}
	k, err := LoadKeyConfig(fileName)
	if err != nil {
		t.Fatal(err)
	}
	if k.DistKeys["films"] != "id" || !reflect.DeepEqual(k.SortKeys["films"], []string{"description", "id"}) {
		t.Fatalf("unexpected keys %+v", k)
	}
	if _, err := LoadKeyConfig(path.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for a missing file")
	}
}

func TestMergeKeyConfig(t *testing.T) {
	base := tabledefinition.KeyConfig{DistKeys: map[string]string{"films": "id", "actors": "id"}}
	override := tabledefinition.KeyConfig{
		DistKeys: map[string]string{"films": "title"},
		SortKeys: map[string][]string{"films": {"title"}},
	}
	m := MergeKeyConfig(base, override)
	if m.DistKeys["films"] != "title" || m.DistKeys["actors"] != "id" || m.SortKeys["films"][0] != "title" {
		t.Fatalf("unexpected merge %+v", m)
	}
}

func TestKeyConfigFromTokens(t *testing.T) {
	k, err := KeyConfigFromTokens("films:id, actors : actor_id", "films:release_date;id")
	if err != nil {
		t.Fatal(err)
	}
	if k.DistKeys["films"] != "id" || k.DistKeys["actors"] != "actor_id" {
		t.Fatalf("unexpected dist keys %v", k.DistKeys)
	}
	if !reflect.DeepEqual(k.SortKeys["films"], []string{"release_date", "id"}) {
		t.Fatalf("unexpected sort keys %v", k.SortKeys)
	}
	if k, err = KeyConfigFromTokens("", ""); err != nil || len(k.DistKeys) != 0 || len(k.SortKeys) != 0 {
		t.Fatalf("expected empty keys; got %+v, %v", k, err)
	}
	if _, err = KeyConfigFromTokens("films:", ""); err == nil {
		t.Fatal("expected error for a missing dist key column")
	}
	if _, err = KeyConfigFromTokens("", "films: ; "); err == nil {
		t.Fatal("expected error for missing sort key columns")
	}
}
