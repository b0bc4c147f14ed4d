package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/klubi/clerk/pkg/apis/v1alpha1"
)

// dispatch sends a structured command to the backend and renders its result.
func dispatch(cmd *cobra.Command, get func() *environment, pc v1alpha1.ParsedCommand, o renderOpts) error {
	b, err := get().Backend(cmd.Context())
	if err != nil {
		return err
	}
	res, err := b.Dispatch(cmd.Context(), pc)
	if err != nil {
		return fmt.Errorf("dispatching %s: %w", pc.Intent, err)
	}
	return newPrinter(cmd).result(*res, o)
}

func newLsCmd(get func() *environment) *cobra.Command {
	var o renderOpts

	cmd := &cobra.Command{
		Use:     "ls [path]",
		Aliases: []string{"list"},
		Short:   "List a directory",
		Long:    "List a directory in the workspace. Directories come first, then files, each sorted by name.",
		Example: `  clerk ls
  clerk ls src -l
  clerk ls -la`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return dispatch(cmd, get, v1alpha1.ParsedCommand{
				Intent:  v1alpha1.IntentListFiles,
				Path:    v1alpha1.StringPtr(path),
				RawText: "ls " + path,
			}, o)
		},
	}

	cmd.Flags().BoolVarP(&o.detailed, "detailed", "l", false, "Show permissions, size and modification time")
	cmd.Flags().BoolVarP(&o.showHidden, "all", "a", false, "Include entries starting with a dot")

	return cmd
}

func newCatCmd(get func() *environment) *cobra.Command {
	o := renderOpts{syntax: true}

	cmd := &cobra.Command{
		Use:     "cat <path>",
		Aliases: []string{"read"},
		Short:   "Print a file",
		Long: `Print a text file from the workspace. Files larger than the configured limit
are refused; binary files are reported instead of printed.`,
		Example: `  clerk cat main.go
  clerk cat notes.txt -n --syntax=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatch(cmd, get, v1alpha1.ParsedCommand{
				Intent:  v1alpha1.IntentReadFile,
				Path:    v1alpha1.StringPtr(args[0]),
				RawText: "cat " + args[0],
			}, o)
		},
	}

	cmd.Flags().BoolVar(&o.syntax, "syntax", true, "Highlight source code")
	cmd.Flags().BoolVarP(&o.lineNumbers, "line-numbers", "n", false, "Number output lines")

	return cmd
}

func newCreateCmd(get func() *environment) *cobra.Command {
	var content string

	cmd := &cobra.Command{
		Use:     "create <path> [content...]",
		Aliases: []string{"touch"},
		Short:   "Create a new file",
		Long: `Create a file that does not exist yet, along with any missing parent
directories. Content comes from the remaining arguments or from --content.`,
		Example: `  clerk create notes.txt hello world
  clerk create docs/todo.md -c "- write tests"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := content
			if len(args) > 1 {
				if cmd.Flags().Changed("content") {
					return errors.New("content given both as arguments and with --content")
				}
				body = strings.Join(args[1:], " ")
			}
			return dispatch(cmd, get, v1alpha1.ParsedCommand{
				Intent:  v1alpha1.IntentCreateFile,
				Path:    v1alpha1.StringPtr(args[0]),
				Content: v1alpha1.StringPtr(body),
				RawText: "create " + strings.Join(args, " "),
			}, renderOpts{})
		},
	}

	cmd.Flags().StringVarP(&content, "content", "c", "", "File content")

	return cmd
}

func newRmCmd(get func() *environment) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:     "rm <path>",
		Aliases: []string{"delete"},
		Short:   "Delete a file or an empty directory",
		Example: `  clerk rm notes.txt
  clerk rm build --confirm=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if confirm {
				ok, err := confirmDelete(cmd.Context(), path)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}
			return dispatch(cmd, get, v1alpha1.ParsedCommand{
				Intent:  v1alpha1.IntentDeleteFile,
				Path:    v1alpha1.StringPtr(path),
				RawText: "rm " + path,
			}, renderOpts{})
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", true, "Ask before deleting")

	return cmd
}

func confirmDelete(ctx context.Context, path string) (bool, error) {
	approved := false
	prompt := huh.NewConfirm().
		Title(fmt.Sprintf("Delete %s?", path)).
		Description("Files are removed permanently. Directories must be empty.").
		Affirmative("Delete").
		Negative("Cancel").
		Value(&approved)
	form := huh.NewForm(huh.NewGroup(prompt)).WithTheme(huh.ThemeCharm())
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("confirmation prompt: %w", err)
	}
	return approved, nil
}
