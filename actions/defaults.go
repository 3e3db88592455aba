package actions

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/relloyd/pgshift/config"
	"github.com/relloyd/pgshift/helper"
)

type DefaultAddConfig struct {
	ConfigFile *config.File `errorTxt:"config-file" mandatory:"yes"`
	Key        string       `errorTxt:"key" mandatory:"yes"`
	Value      string       `errorTxt:"value" mandatory:"yes"`
	Force      bool
	Out        io.Writer `errorTxt:"output" mandatory:"yes"`
}

type DefaultRemoveConfig struct {
	ConfigFile *config.File `errorTxt:"config-file" mandatory:"yes"`
	Key        string       `errorTxt:"key" mandatory:"yes"`
	Out        io.Writer    `errorTxt:"output" mandatory:"yes"`
}

type DefaultListConfig struct {
	ConfigFile *config.File `errorTxt:"config-file" mandatory:"yes"`
	Out        io.Writer    `errorTxt:"output" mandatory:"yes"`
}

// RunDefaultAdd saves a default flag value in the config file.
// An existing key is only replaced when cfg.Force is set.
func RunDefaultAdd(cfg *DefaultAddConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	var val string
	err := cfg.ConfigFile.Get(cfg.Key, &val)
	if err == nil && !cfg.Force { // if the key exists and we're not allowed to overwrite...
		return fmt.Errorf("key %q exists, use force to update the value or remove it first", cfg.Key)
	} else if err != nil && !errors.As(err, &config.KeyNotFoundError{}) {
		return err
	}
	if err = cfg.ConfigFile.Set(cfg.Key, cfg.Value); err != nil {
		return errors.Wrap(err, "error writing config file")
	}
	_, _ = fmt.Fprintf(cfg.Out, "Key %q added to %q\n", cfg.Key, cfg.ConfigFile.FullPath)
	return nil
}

func RunDefaultRemove(cfg *DefaultRemoveConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	if err := cfg.ConfigFile.Delete(cfg.Key); err != nil {
		return errors.Wrapf(err, "unable to delete key %q from config", cfg.Key)
	}
	_, _ = fmt.Fprintf(cfg.Out, "Key %q removed\n", cfg.Key)
	return nil
}

// RunDefaultList prints key=value for every default in the config file.
func RunDefaultList(cfg *DefaultListConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	keys, err := cfg.ConfigFile.GetAllKeys()
	if err != nil {
		return err
	}
	for _, k := range keys {
		var val string
		if err := cfg.ConfigFile.Get(k, &val); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cfg.Out, "%v=%v\n", k, val)
	}
	return nil
}
