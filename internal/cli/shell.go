package cli

import (
	"github.com/spf13/cobra"

	"github.com/klubi/clerk/internal/tui"
)

func newShellCmd(get func() *environment) *cobra.Command {
	return &cobra.Command{
		Use:     "shell",
		Aliases: []string{"ui"},
		Short:   "Open the interactive console",
		Long: `Open a full-screen console. Type requests as you would after 'clerk run';
Tab completes tool names and common phrasings. Press Ctrl+C to exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := get()
			b, err := env.Backend(cmd.Context())
			if err != nil {
				return err
			}
			return tui.New(b, env.registry).Run(cmd.Context())
		},
	}
}
