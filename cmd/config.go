package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/marcus/plansync/internal/models"
	"github.com/marcus/plansync/internal/output"
	"github.com/marcus/plansync/internal/suggest"
	"github.com/marcus/plansync/internal/syncconfig"
	"github.com/spf13/cobra"
)

// validConfigKeys lists the supported config keys for set/get.
var validConfigKeys = []string{
	"repo",
	"api_url",
	"data_root",
	"base_branch",
	"language",
	"fetch_concurrency",
}

func isValidConfigKey(key string) bool {
	for _, k := range validConfigKeys {
		if k == key {
			return true
		}
	}
	return false
}

func unknownConfigKey(key string) error {
	err := fmt.Errorf("unknown config key: %s%s", key, suggest.Hint(key, validConfigKeys))
	output.Error("%v", err)
	fmt.Println("Valid keys:", strings.Join(validConfigKeys, ", "))
	return err
}

// setConfigValue stores val under key in cfg.
func setConfigValue(cfg *syncconfig.Config, key, val string) error {
	switch key {
	case "repo":
		owner, name, ok := strings.Cut(val, "/")
		if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
			return fmt.Errorf("invalid repo %q (want owner/name)", val)
		}
		cfg.RepoOwner, cfg.RepoName = owner, name
	case "api_url":
		cfg.APIURL = val
	case "data_root":
		cfg.DataRoot = strings.Trim(val, "/")
	case "base_branch":
		cfg.BaseBranch = val
	case "language":
		lang := strings.ToLower(val)
		if !models.IsKnownLanguage(lang) {
			return fmt.Errorf("unknown language %q%s", val, suggest.Hint(lang, models.LanguageKeys))
		}
		cfg.Language = lang
	case "fetch_concurrency":
		n, err := strconv.Atoi(val)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid concurrency %q (want a positive integer)", val)
		}
		cfg.FetchConcurrency = n
	}
	return nil
}

// settingValue returns the effective value of key.
func settingValue(s *syncconfig.Settings, key string) string {
	switch key {
	case "repo":
		if s.RepoOwner == "" && s.RepoName == "" {
			return ""
		}
		return s.RepoOwner + "/" + s.RepoName
	case "api_url":
		return s.APIURL
	case "data_root":
		return s.DataRoot
	case "base_branch":
		return s.BaseBranch
	case "language":
		return s.Language
	case "fetch_concurrency":
		return strconv.Itoa(s.FetchConcurrency)
	}
	return ""
}

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Manage plansync configuration",
	GroupID: "system",
}

var configSetCmd = &cobra.Command{
	Use:     "set <key> <value>",
	Short:   "Set a config value",
	Example: `  plansync config set repo example-org/vaccination-plans`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if !isValidConfigKey(key) {
			return unknownConfigKey(key)
		}

		cfg, err := syncconfig.LoadConfig()
		if err != nil {
			output.Error("load config: %v", err)
			return err
		}
		if err := setConfigValue(cfg, key, val); err != nil {
			output.Error("%v", err)
			return err
		}
		if err := syncconfig.SaveConfig(cfg); err != nil {
			output.Error("save config: %v", err)
			return err
		}

		output.Success("set %s = %s", key, val)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get an effective config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		if !isValidConfigKey(key) {
			return unknownConfigKey(key)
		}
		s, err := syncconfig.Load()
		if err != nil {
			output.Error("load settings: %v", err)
			return err
		}
		fmt.Println(settingValue(s, key))
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List effective config values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := syncconfig.Load()
		if err != nil {
			output.Error("load settings: %v", err)
			return err
		}
		if jsonOutput {
			out := make(map[string]string, len(validConfigKeys))
			for _, k := range validConfigKeys {
				out[k] = settingValue(s, k)
			}
			return output.JSON(out)
		}
		for _, k := range validConfigKeys {
			fmt.Printf("%-18s %s\n", k, settingValue(s, k))
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configSetCmd, configGetCmd, configListCmd)
	rootCmd.AddCommand(configCmd)
}
