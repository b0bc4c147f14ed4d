package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klubi/clerk/pkg/apis/v1alpha1"
)

func newRunCmd(get func() *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <text...>",
		Short: "Resolve a plain-English request and execute it",
		Long: `Resolve the text into a file operation, a web search or a free-form
request and execute it. Free-form requests are answered by the language model.`,
		Example: `  clerk run list files in src
  clerk run read file README.md
  clerk run create a file called notes.txt with hello world
  clerk run delete file notes.txt
  clerk run search for latest AI news
  clerk run explain what a goroutine is`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := get()
			b, err := env.Backend(cmd.Context())
			if err != nil {
				return err
			}

			resp, err := b.Run(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("running command: %w", err)
			}
			return printRun(newPrinter(cmd), resp, env.verbose)
		},
	}
	return cmd
}

// printRun renders a RunResponse. Structured output carries the resolved
// command along with the result.
func printRun(p *printer, resp *v1alpha1.RunResponse, showIntent bool) error {
	if done, err := printStructured(p.out, resp); done {
		if err != nil {
			return err
		}
		if !resp.Result.OK() {
			return ErrCommandFailed
		}
		return nil
	}
	if showIntent {
		fmt.Fprintln(p.errOut, color.New(color.Faint).Sprint(describeCommand(resp.Command)))
	}
	return p.result(resp.Result, renderOpts{syntax: true})
}

func describeCommand(c v1alpha1.ParsedCommand) string {
	parts := []string{"intent=" + string(c.Intent)}
	if c.Path != nil {
		parts = append(parts, fmt.Sprintf("path=%q", *c.Path))
	}
	if c.Content != nil {
		parts = append(parts, fmt.Sprintf("content=%q", *c.Content))
	}
	if c.Query != nil {
		parts = append(parts, fmt.Sprintf("query=%q", *c.Query))
	}
	if c.SearchType != "" {
		parts = append(parts, "type="+string(c.SearchType))
	}
	return strings.Join(parts, " ")
}
