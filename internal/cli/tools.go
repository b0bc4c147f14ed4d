package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klubi/clerk/internal/registry"
	"github.com/klubi/clerk/pkg/apis/v1alpha1"
	"github.com/klubi/clerk/pkg/client"
)

func newToolsCmd(get func() *environment) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "tools [category]",
		Short: "List the tools clerk knows about",
		Long:  "List tool descriptors, optionally restricted to one category (file_system, web_search, utility).",
		Example: `  clerk tools
  clerk tools file_system
  clerk tools -s search`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var category string
			if len(args) > 0 {
				category = args[0]
			}

			env := get()
			var (
				tools []v1alpha1.ToolDescriptor
				err   error
			)
			if env.serverAddr != "" {
				tools, err = client.New(env.serverAddr).ListTools(cmd.Context(), category, search)
			} else {
				tools, err = filterTools(env.registry, category, search)
			}
			if err != nil {
				return err
			}

			if done, err := printStructured(cmd.OutOrStdout(), tools); done {
				return err
			}
			if len(tools) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tools found.")
				return nil
			}

			rows := make([][]string, 0, len(tools))
			for _, t := range tools {
				rows = append(rows, []string{
					color.New(color.Bold).Sprint(t.Name),
					string(t.Category),
					strings.Join(t.Required, ","),
					t.Description,
				})
			}
			printTable(cmd.OutOrStdout(), []string{"NAME", "CATEGORY", "REQUIRED", "DESCRIPTION"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Only show tools whose name or description contains this term")

	return cmd
}

// filterTools applies the category and search filters the same way the API
// server does: both must match when both are given.
func filterTools(reg *registry.Registry, category, search string) ([]v1alpha1.ToolDescriptor, error) {
	tools := reg.All()
	if category != "" {
		c, err := registry.ParseCategory(category)
		if err != nil {
			return nil, err
		}
		tools = reg.ByCategory(c)
	}
	if search != "" {
		keep := make(map[string]bool)
		for _, t := range reg.Search(search) {
			keep[t.Name] = true
		}
		var out []v1alpha1.ToolDescriptor
		for _, t := range tools {
			if keep[t.Name] {
				out = append(out, t)
			}
		}
		tools = out
	}
	return tools, nil
}

func newHelpToolCmd(get func() *environment) *cobra.Command {
	return &cobra.Command{
		Use:     "help-tool <name>",
		Short:   "Describe one tool",
		Example: `  clerk help-tool read_file`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := get().registry
			name := args[0]

			text, err := reg.Help(name)
			if errors.Is(err, registry.ErrUnknownTool) {
				p := newPrinter(cmd)
				p.failure(&v1alpha1.Failure{Kind: v1alpha1.FailureInvalidParameter, Message: "unknown tool: " + name})
				if similar := reg.Similar(name); len(similar) > 0 {
					fmt.Fprintf(p.errOut, "Did you mean: %s?\n", strings.Join(similar, ", "))
				}
				return ErrCommandFailed
			}
			if err != nil {
				return err
			}

			if t, ok := reg.Get(name); ok {
				if done, err := printStructured(cmd.OutOrStdout(), t); done {
					return err
				}
			}
			p := newPrinter(cmd)
			fmt.Fprintln(p.out, p.style.Panel.Render(strings.TrimRight(text, "\n")))
			return nil
		},
	}
}
