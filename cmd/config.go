package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileName = "lifecards"
	configFileType = "yaml"

	cfgKeyHintsDir         = "hints_dir"
	cfgKeyHintsDB          = "hints_db"
	cfgKeyHintSelector     = "hint_selector"
	cfgKeyRoot             = "root"
	cfgKeyDefaultLimit     = "default_limit"
	cfgKeyDefaultChildKind = "default_child_kind"
	cfgKeyGenericKind      = "generic_kind"
	cfgKeyPrune            = "prune_stale_children"
	cfgKeyLogLevel         = "log_level"

	envPrefix = "LIFECARDS"
)

// settings is the resolved configuration every command runs with.
type settings struct {
	HintsDir         string
	HintsDB          string
	HintSelector     string
	Root             string
	DefaultLimit     int
	DefaultChildKind string
	GenericKind      string
	Prune            bool
	LogLevel         string
}

// loadConfig layers defaults, lifecards.yaml, LIFECARDS_* environment
// variables and flags, lowest to highest. A missing config file is not an
// error; a named one that is missing is.
func loadConfig(path string, flags *pflag.FlagSet) (settings, error) {
	v := viper.New()
	v.SetDefault(cfgKeyHintsDir, ".")
	v.SetDefault(cfgKeyRoot, "/")
	v.SetDefault(cfgKeyDefaultLimit, 999)
	v.SetDefault(cfgKeyDefaultChildKind, "card")
	v.SetDefault(cfgKeyGenericKind, "div")
	v.SetDefault(cfgKeyPrune, false)
	v.SetDefault(cfgKeyLogLevel, "info")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for key, flag := range flagKeys {
			if f := flags.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return settings{}, fmt.Errorf("bind flag %s: %w", flag, err)
				}
			}
		}
	}

	return settings{
		HintsDir:         v.GetString(cfgKeyHintsDir),
		HintsDB:          v.GetString(cfgKeyHintsDB),
		HintSelector:     v.GetString(cfgKeyHintSelector),
		Root:             v.GetString(cfgKeyRoot),
		DefaultLimit:     v.GetInt(cfgKeyDefaultLimit),
		DefaultChildKind: v.GetString(cfgKeyDefaultChildKind),
		GenericKind:      v.GetString(cfgKeyGenericKind),
		Prune:            v.GetBool(cfgKeyPrune),
		LogLevel:         v.GetString(cfgKeyLogLevel),
	}, nil
}

// flagKeys maps config keys to the persistent flags that override them.
var flagKeys = map[string]string{
	cfgKeyHintsDir:     "hints",
	cfgKeyHintsDB:      "db",
	cfgKeyHintSelector: "selector",
	cfgKeyPrune:        "prune",
	cfgKeyLogLevel:     "log-level",
}
