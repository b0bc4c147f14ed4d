package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klubi/clerk/internal/agent"
	"github.com/klubi/clerk/internal/config"
)

const configTemplate = `# clerk configuration. Environment variables override these values.
workspace:
  root: ""            # default: current directory
  maxReadBytes: 1048576
llm:
  provider: auto      # auto|gemini|claude|none
  geminiAPIKey: ""    # or GEMINI_API_KEY
  model: ""
  claudeCLI: claude
  maxTokens: 4096
  temperature: 0.7
composio:
  apiKey: ""          # or COMPOSIO_API_KEY
  entityID: default
search:
  serpAPIKey: ""      # or SERPAPI_KEY
  maxResults: 5
log:
  level: warn
  format: console
  file: ""
server:
  host: 127.0.0.1
  port: 7118
`

var keyHelp = map[string]string{
	"COMPOSIO_API_KEY": "tool provider for web search (https://app.composio.dev)",
	"GEMINI_API_KEY":   "language model for free-form requests (https://aistudio.google.com)",
	"SERPAPI_KEY":      "direct search fallback (https://serpapi.com)",
}

func newSetupCmd(get func() *environment) *cobra.Command {
	var (
		write bool
		force bool
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Check credentials and write a config template",
		Long: `Show which credentials clerk can see and how to provide the missing ones.
With --write a commented config template is written to the config path.`,
		Example: `  clerk setup
  clerk setup --write`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := get()
			out := cmd.OutOrStdout()

			path := env.cfgFile
			if path == "" {
				path = config.DefaultPath()
			}
			if write {
				if path == "" {
					return errors.New("cannot determine config path; pass --config")
				}
				if err := writeTemplate(path, force); err != nil {
					return err
				}
				color.New(color.Bold).Fprintf(out, "Wrote %s\n\n", path)
			}

			cfg, err := env.Config()
			if err != nil {
				return err
			}

			color.New(color.FgCyan, color.Bold).Fprintln(out, "clerk setup")
			fmt.Fprintln(out)

			keys := cfg.Keys()
			names := make([]string, 0, len(keys))
			for k := range keys {
				names = append(names, k)
			}
			sort.Strings(names)
			for _, k := range names {
				if keys[k] {
					color.New(color.FgGreen).Fprintf(out, "  ✓ %s\n", k)
					continue
				}
				color.New(color.FgRed).Fprintf(out, "  ✗ %s", k)
				fmt.Fprintf(out, "  %s\n", keyHelp[k])
			}
			if agent.ClaudeAvailable(cfg.LLM.ClaudeCLI) {
				color.New(color.FgGreen).Fprintf(out, "  ✓ %s CLI on PATH\n", cfg.LLM.ClaudeCLI)
			} else {
				color.New(color.FgYellow).Fprintf(out, "  - %s CLI not found (optional language model)\n", cfg.LLM.ClaudeCLI)
			}
			fmt.Fprintln(out)

			if !write {
				fmt.Fprintf(out, "Export the missing keys, or run 'clerk setup --write' to create %s.\n", path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&write, "write", false, "Write a config template")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}

func writeTemplate(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("file %s already exists. Use --force to overwrite", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
