package cli

import (
	"errors"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// ErrCommandFailed is returned when a command ran but its result was a
// failure. The failure has already been printed.
var ErrCommandFailed = errors.New("command failed")

var (
	cfgFile    string
	verbose    bool
	serverAddr string
	noColor    bool
)

// NewRootCmd creates the top-level clerk CLI command with all subcommands.
func NewRootCmd() *cobra.Command {
	var env *environment

	cmd := &cobra.Command{
		Use:   "clerk",
		Short: "A command-line agent for files, web search and natural-language requests",
		Long: `clerk turns plain-English requests into file operations, web searches and
language-model answers.

  clerk run list files in src
  clerk run create a file called notes.txt with hello world
  clerk run search for latest AI news
  clerk search golang generics --type news`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true
			}
			env = newEnvironment(cfgFile, verbose, serverAddr)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			env.close()
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.clerk/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table|json|yaml")
	cmd.PersistentFlags().StringVar(&serverAddr, "server", "", "Send commands to a running 'clerk serve' (e.g. http://127.0.0.1:7118)")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	get := func() *environment { return env }

	cmd.AddCommand(
		newRunCmd(get),
		newLsCmd(get),
		newCatCmd(get),
		newCreateCmd(get),
		newRmCmd(get),
		newSearchCmd(get, "search", ""),
		newSearchCmd(get, "news", "news"),
		newSearchCmd(get, "images", "images"),
		newToolsCmd(get),
		newHelpToolCmd(get),
		newStatusCmd(get),
		newVersionCmd(),
		newSetupCmd(get),
		newApplyCmd(get),
		newServeCmd(get),
		newShellCmd(get),
	)

	return cmd
}
