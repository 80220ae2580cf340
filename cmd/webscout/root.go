package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hupe1980/webscout/config"
)

// version is set at build time via -ldflags.
var version = "dev"

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "webscout",
		Short:         "Webscout browses the web with a team of LLM agents.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./webscout.yaml)")
	root.PersistentFlags().String("provider", "", "model provider (openai, anthropic)")
	root.PersistentFlags().String("model", "", "model name")
	root.PersistentFlags().String("save-dir", "", "directory for run transcripts and tables")
	root.PersistentFlags().String("format", "", "table format (csv, xlsx)")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	load := func(cmd *cobra.Command) (*config.Config, error) {
		return loadConfig(cmd, cfgFile)
	}

	root.AddCommand(newRunCmd(load), newConfigCmd(load))

	return root
}

var flagKeys = map[string]string{
	"provider":  "model.provider",
	"model":     "model.name",
	"save-dir":  "agent.save_dir",
	"format":    "agent.table_format",
	"log-level": "logger.level",
	"headless":  "browser.headless",
	"cdp-url":   "browser.cdp_url",
	"max-steps": "agent.brain_steps",
}

// loadConfig layers defaults, the config file, WEBSCOUT_* env vars and the
// flags the user actually set.
func loadConfig(cmd *cobra.Command, cfgFile string) (*config.Config, error) {
	v := config.NewViper(cfgFile)

	if err := config.ReadFile(v, cfgFile); err != nil {
		return nil, err
	}

	if err := bindFlags(v, cmd); err != nil {
		return nil, err
	}

	return config.FromViper(v)
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}

		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}

	return nil
}
