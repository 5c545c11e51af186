package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/scholargraph/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set configuration values.

Usage:
  sg config                               # Show all config
  sg config api-url                       # Get specific value
  sg config api-url https://graph.example # Set value

Keys:
  api-url           Backend base URL
  token             Bearer token sent with every request
  rate-limit        Requests per second (0 disables limiting)
  log-level         debug, info, warn or error
  log-format        text or json
  workspace-dir     Directory holding the workspace and saved-graph database
  conceptual-dedup  typed (source, target, relation) or pair (source, target)
  llm-provider      Language-model provider for chat, reviews and hypotheses
  llm-api-key       Language-model API key
  llm-model         Language-model name`,
	Args: cobra.MaximumNArgs(2),
	Run:  runConfig,
}

// configField binds a key to a Config field.
type configField struct {
	get    func(c *config.Config) string
	set    func(c *config.Config, v string) error
	secret bool
}

func stringField(ptr func(c *config.Config) *string) configField {
	return configField{
		get: func(c *config.Config) string { return *ptr(c) },
		set: func(c *config.Config, v string) error { *ptr(c) = v; return nil },
	}
}

func secretField(ptr func(c *config.Config) *string) configField {
	f := stringField(ptr)
	f.secret = true
	return f
}

var configFields = map[string]configField{
	"api-url":          stringField(func(c *config.Config) *string { return &c.APIURL }),
	"token":            secretField(func(c *config.Config) *string { return &c.Token }),
	"log-level":        stringField(func(c *config.Config) *string { return &c.LogLevel }),
	"log-format":       stringField(func(c *config.Config) *string { return &c.LogFormat }),
	"workspace-dir":    stringField(func(c *config.Config) *string { return &c.WorkspaceDir }),
	"conceptual-dedup": stringField(func(c *config.Config) *string { return &c.ConceptualDedup }),
	"llm-provider":     stringField(func(c *config.Config) *string { return &c.LLMProvider }),
	"llm-api-key":      secretField(func(c *config.Config) *string { return &c.LLMAPIKey }),
	"llm-model":        stringField(func(c *config.Config) *string { return &c.LLMModel }),
	"rate-limit": {
		get: func(c *config.Config) string { return strconv.FormatFloat(c.RateLimit, 'g', -1, 64) },
		set: func(c *config.Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("rate-limit must be a number: %q", v)
			}
			c.RateLimit = f
			return nil
		},
	},
}

// configKeys lists the keys in display order.
var configKeys = []string{
	"api-url", "token", "rate-limit", "log-level", "log-format",
	"workspace-dir", "conceptual-dedup", "llm-provider", "llm-api-key", "llm-model",
}

// maskSecret hides all but the last four characters of a credential.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

// normalizeKey converts underscores to hyphens so both spellings work.
func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(key), "_", "-")
}

func runConfig(cmd *cobra.Command, args []string) {
	path := configPath
	if path == "" {
		path = config.Path()
	}
	cfg := mustLoadConfig()

	display := func(key string) string {
		f := configFields[key]
		v := f.get(cfg)
		if f.secret {
			return maskSecret(v)
		}
		return v
	}

	// No args: show all config
	if len(args) == 0 {
		if humanOutput {
			table := newTable("Key", "Value")
			for _, k := range configKeys {
				table.Append(k, display(k))
			}
			table.Append("config-file", path)
			table.Render()
			return
		}
		out := make(map[string]string, len(configKeys))
		for _, k := range configKeys {
			out[strings.ReplaceAll(k, "-", "_")] = display(k)
		}
		outputJSON(out)
		return
	}

	key := normalizeKey(args[0])
	f, ok := configFields[key]
	if !ok {
		exitWithError(ExitConfigError, "unknown config key %q (valid: %s)", args[0], strings.Join(configKeys, ", "))
	}

	// One arg: get specific value
	if len(args) == 1 {
		if humanOutput {
			fmt.Println(display(key))
		} else {
			outputJSON(map[string]string{strings.ReplaceAll(key, "-", "_"): display(key)})
		}
		return
	}

	// Only file values are written back, never environment overrides.
	fileCfg, err := config.LoadFile(path)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if err := f.set(fileCfg, args[1]); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if err := fileCfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if err := fileCfg.Save(path); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	cfg = fileCfg

	if humanOutput {
		fmt.Printf("Set %s = %s\n", key, display(key))
		return
	}
	outputJSON(map[string]string{
		"status": "updated",
		"key":    key,
		"value":  display(key),
	})
}
