package config

import (
	"io/ioutil"

	"github.com/ghodss/yaml"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/relloyd/pgshift/helper"
	tabledefinition "github.com/relloyd/pgshift/table-definition"
)

// LoadKeyConfig reads dist and sort keys from a YAML or JSON file of the form:
//
//	distKeys:
//	  films: id
//	sortKeys:
//	  films: [release_date, id]
func LoadKeyConfig(fileName string) (tabledefinition.KeyConfig, error) {
	k := tabledefinition.KeyConfig{}
	fileName, err := homedir.Expand(fileName)
	if err != nil {
		return k, err
	}
	b, err := ioutil.ReadFile(fileName)
	if err != nil {
		return k, errors.Wrapf(err, "error reading keys file %q", fileName)
	}
	if err = yaml.Unmarshal(b, &k); err != nil {
		return k, errors.Wrapf(err, "error parsing keys file %q", fileName)
	}
	return k, nil
}

// MergeKeyConfig returns base with the entries of override added, replacing any for the same table.
func MergeKeyConfig(base tabledefinition.KeyConfig, override tabledefinition.KeyConfig) tabledefinition.KeyConfig {
	out := tabledefinition.KeyConfig{
		DistKeys: make(map[string]string),
		SortKeys: make(map[string][]string),
	}
	for _, m := range []tabledefinition.KeyConfig{base, override} {
		for k, v := range m.DistKeys {
			out.DistKeys[k] = v
		}
		for k, v := range m.SortKeys {
			out.SortKeys[k] = v
		}
	}
	return out
}

// KeyConfigFromTokens builds keys from flag values of the form "films:id,actors:actor_id" for dist keys
// and "films:release_date;id" for sort keys, where sort key columns are separated by semicolons.
func KeyConfigFromTokens(distKeys string, sortKeys string) (tabledefinition.KeyConfig, error) {
	k := tabledefinition.KeyConfig{
		DistKeys: make(map[string]string),
		SortKeys: make(map[string][]string),
	}
	iter := helper.TokensToOrderedMap(distKeys).IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		col := kv.Value.(string)
		if col == "" {
			return k, errors.Errorf("missing dist key column for table %q", kv.Key)
		}
		k.DistKeys[kv.Key.(string)] = col
	}
	iter = helper.TokensToOrderedMap(sortKeys).IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		cols := helper.SplitTrimSpaces(kv.Value.(string), ";")
		if len(cols) == 0 {
			return k, errors.Errorf("missing sort key columns for table %q", kv.Key)
		}
		k.SortKeys[kv.Key.(string)] = cols
	}
	return k, nil
}
