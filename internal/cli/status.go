package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klubi/clerk/pkg/apis/v1alpha1"
	"github.com/klubi/clerk/pkg/client"
)

func newStatusCmd(get func() *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which collaborators are configured",
		Long:  "Display the workspace, language-model provider, tool provider and API key status.",
		Example: `  clerk status
  clerk status --server http://127.0.0.1:7118`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := get()
			if env.serverAddr != "" {
				if err := client.New(env.serverAddr).Healthz(cmd.Context()); err != nil {
					color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "clerk server %s: UNREACHABLE\n", env.serverAddr)
					return fmt.Errorf("cannot reach server: %w", err)
				}
			}

			b, err := env.Backend(cmd.Context())
			if err != nil {
				return err
			}
			st, err := b.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("getting status: %w", err)
			}

			if done, err := printStructured(cmd.OutOrStdout(), st); done {
				return err
			}
			p := newPrinter(cmd)
			fmt.Fprintln(p.out, p.style.Panel.Render(statusPanel(p, st)))
			return nil
		},
	}
}

func statusPanel(p *printer, st *v1alpha1.AgentStatus) string {
	ok := color.New(color.FgGreen).Sprint("✓")
	missing := color.New(color.FgRed).Sprint("✗")

	model := st.Model
	if model == "" {
		model = "-"
	}

	var b strings.Builder
	b.WriteString(p.style.Title.Render("clerk "+st.Version) + "\n\n")
	fmt.Fprintf(&b, "Workspace:      %s\n", st.Workspace)
	fmt.Fprintf(&b, "LLM provider:   %s\n", st.LLMProvider)
	fmt.Fprintf(&b, "Model:          %s\n", model)
	fmt.Fprintf(&b, "Tool provider:  %s\n", st.ToolProvider)
	fmt.Fprintf(&b, "Tools:          %d available\n", st.AvailableTools)

	keys := make([]string, 0, len(st.Keys))
	for k := range st.Keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteString("\nAPI keys:")
	for _, k := range keys {
		mark := missing
		if st.Keys[k] {
			mark = ok
		}
		fmt.Fprintf(&b, "\n  %s %s", mark, k)
	}
	return b.String()
}
