package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/klubi/clerk/internal/app"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the clerk version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := map[string]string{
				"version": app.Version,
				"go":      runtime.Version(),
				"os/arch": runtime.GOOS + "/" + runtime.GOARCH,
			}
			if done, err := printStructured(cmd.OutOrStdout(), info); done {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "clerk %s (%s, %s)\n", app.Version, info["go"], info["os/arch"])
			return nil
		},
	}
}
