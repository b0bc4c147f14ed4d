package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klubi/clerk/pkg/apis/v1alpha1"
	"github.com/klubi/clerk/pkg/manifest"
)

// applyOutcome is the per-Command record of an apply run.
type applyOutcome struct {
	Name    string                 `json:"name" yaml:"name"`
	Command v1alpha1.ParsedCommand `json:"command" yaml:"command"`
	Result  v1alpha1.Result        `json:"result" yaml:"result"`
}

func newApplyCmd(get func() *environment) *cobra.Command {
	var (
		filename string
		parallel bool
	)

	cmd := &cobra.Command{
		Use:   "apply -f <file>",
		Short: "Execute a batch of commands from a manifest file",
		Long: `Execute every Command in a multi-document YAML manifest. A Command holds
either free text (spec.text) or a structured request (spec.intent with path,
content, query and searchType). Commands run in document order unless
--parallel is given; mutations of the same path are still serialized.`,
		Example: `  clerk apply -f batch.yaml
  clerk apply -f batch.yaml --parallel -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			commands, err := manifest.ParseFile(filename)
			if err != nil {
				return fmt.Errorf("parsing manifest %s: %w", filename, err)
			}
			if len(commands) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No commands found in manifest.")
				return nil
			}

			b, err := get().Backend(cmd.Context())
			if err != nil {
				return err
			}

			outcomes := make([]applyOutcome, len(commands))
			if parallel {
				var wg sync.WaitGroup
				errs := make([]error, len(commands))
				for i, c := range commands {
					wg.Add(1)
					go func(i int, c *v1alpha1.Command) {
						defer wg.Done()
						outcomes[i], errs[i] = applyOne(cmd.Context(), b, c)
					}(i, c)
				}
				wg.Wait()
				for i, err := range errs {
					if err != nil {
						return fmt.Errorf("applying %s: %w", commands[i].Metadata.Name, err)
					}
				}
			} else {
				for i, c := range commands {
					if outcomes[i], err = applyOne(cmd.Context(), b, c); err != nil {
						return fmt.Errorf("applying %s: %w", c.Metadata.Name, err)
					}
				}
			}

			failed := 0
			for _, o := range outcomes {
				if !o.Result.OK() {
					failed++
				}
			}

			if done, err := printStructured(cmd.OutOrStdout(), outcomes); done {
				if err != nil {
					return err
				}
				if failed > 0 {
					return ErrCommandFailed
				}
				return nil
			}

			p := newPrinter(cmd)
			header := color.New(color.FgCyan, color.Bold)
			for _, o := range outcomes {
				header.Fprintf(p.out, "command/%s", o.Name)
				fmt.Fprintf(p.out, " (%s)\n", o.Command.Intent)
				_ = p.result(o.Result, renderOpts{syntax: true})
				fmt.Fprintln(p.out)
			}
			fmt.Fprintf(p.out, "%d commands, %d failed\n", len(outcomes), failed)
			if failed > 0 {
				return ErrCommandFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&filename, "filename", "f", "", "Path to manifest file (required)")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "Run commands concurrently")
	cmd.MarkFlagRequired("filename")

	return cmd
}

func applyOne(ctx context.Context, b backend, c *v1alpha1.Command) (applyOutcome, error) {
	out := applyOutcome{Name: c.Metadata.Name}
	if pc, ok := manifest.Structured(c); ok {
		res, err := b.Dispatch(ctx, pc)
		if err != nil {
			return out, err
		}
		out.Command, out.Result = pc, *res
		return out, nil
	}
	resp, err := b.Run(ctx, c.Spec.Text)
	if err != nil {
		return out, err
	}
	out.Command, out.Result = resp.Command, resp.Result
	return out, nil
}
