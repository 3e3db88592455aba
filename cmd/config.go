package cmd

import (
	"fmt"

	"github.com/relloyd/pgshift/actions"
	"github.com/relloyd/pgshift/config"
	"github.com/spf13/cobra"
)

// mainConfig holds default flag values. It is nil if the home directory cannot be found.
var mainConfig, mainConfigErr = config.NewDefaultFile()

func getMainConfig() (*config.File, error) {
	if mainConfigErr != nil {
		return nil, mainConfigErr
	}
	return mainConfig, nil
}

// getConfigDefault reads a default flag value from the main config file.
func getConfigDefault(key string, out interface{}) error {
	f, err := getMainConfig()
	if err != nil {
		return err
	}
	return f.Get(key, out)
}

func mainConfigPath() string {
	if f, err := getMainConfig(); err == nil {
		return f.FullPath
	}
	return fmt.Sprintf("~/%v/%v", config.MainDir, config.MainFileFullName)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configure default flag values",
	Long: fmt.Sprintf(`Configure default values for command flags, where:

- Defaults are stored in file %q
- Keys match the long name of the flag they set`, mainConfigPath()),
}

var defaultAddCfg = actions.DefaultAddConfig{}

var defaultAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or set a default flag value",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := getMainConfig()
		if err != nil {
			return err
		}
		defaultAddCfg.ConfigFile = f
		defaultAddCfg.Out = cmd.OutOrStdout()
		return actions.RunDefaultAdd(&defaultAddCfg)
	},
}

var defaultListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print all default flag values",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := getMainConfig()
		if err != nil {
			return err
		}
		return actions.RunDefaultList(&actions.DefaultListConfig{ConfigFile: f, Out: cmd.OutOrStdout()})
	},
}

var defaultRemoveCfg = actions.DefaultRemoveConfig{}

var defaultRemoveCmd = &cobra.Command{
	Use:     "remove",
	Aliases: []string{"rm", "del", "delete"},
	Short:   "Remove a default flag value",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := getMainConfig()
		if err != nil {
			return err
		}
		defaultRemoveCfg.ConfigFile = f
		defaultRemoveCfg.Out = cmd.OutOrStdout()
		return actions.RunDefaultRemove(&defaultRemoveCfg)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(defaultAddCmd, defaultListCmd, defaultRemoveCmd)
	defaultAddCmd.Flags().SortFlags = false
	defaultAddCmd.Flags().StringVarP(&defaultAddCfg.Key, "key", "k", "", "* The key to set in config. Match the name of the flag\n"+
		"to have this value take effect in commands")
	defaultAddCmd.Flags().StringVarP(&defaultAddCfg.Value, "value", "v", "", "* The default value to set")
	defaultAddCmd.Flags().BoolVarP(&defaultAddCfg.Force, "force", "f", false, "Overwrite existing values")
	_ = defaultAddCmd.MarkFlagRequired("key")
	_ = defaultAddCmd.MarkFlagRequired("value")
	defaultAddCmd.SilenceUsage = true
	defaultRemoveCmd.Flags().StringVarP(&defaultRemoveCfg.Key, "key", "k", "", "* The key to remove from config")
	_ = defaultRemoveCmd.MarkFlagRequired("key")
	defaultRemoveCmd.SilenceUsage = true
}
