package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/klubi/clerk/pkg/apis/v1alpha1"
)

// newSearchCmd builds the search command and its news and images shortcuts.
// A non-empty fixedType pins the search type and hides the --type flag.
func newSearchCmd(get func() *environment, use string, fixedType v1alpha1.SearchType) *cobra.Command {
	var (
		searchType string
		max        int
	)

	short := "Search the web"
	if fixedType != "" {
		short = fmt.Sprintf("Search the web for %s", fixedType)
	}

	cmd := &cobra.Command{
		Use:   use + " <query...>",
		Short: short,
		Long: `Search the web through the configured tool provider, falling back to a
direct SerpAPI request when the provider has no usable search action.`,
		Example: fmt.Sprintf(`  clerk %[1]s golang generics
  clerk %[1]s rust async runtimes -n 3`, use),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := fixedType
			if t == "" {
				t = v1alpha1.SearchType(strings.ToLower(searchType))
				if !t.Valid() {
					return fmt.Errorf("invalid search type %q (want general, news or images)", searchType)
				}
			}

			env := get()
			if cmd.Flags().Changed("max") {
				if max < 1 {
					return fmt.Errorf("--max must be at least 1, got %d", max)
				}
				if env.serverAddr == "" {
					cfg, err := env.Config()
					if err != nil {
						return err
					}
					cfg.Search.MaxResults = max
				}
			}

			b, err := env.Backend(cmd.Context())
			if err != nil {
				return err
			}
			res, err := b.Search(cmd.Context(), strings.Join(args, " "), t.OrDefault())
			if err != nil {
				return fmt.Errorf("searching: %w", err)
			}
			if cmd.Flags().Changed("max") && res.Search != nil {
				limitReport(res.Search, max)
			}
			return newPrinter(cmd).result(*res, renderOpts{})
		},
	}

	if fixedType == "" {
		cmd.Flags().StringVarP(&searchType, "type", "t", string(v1alpha1.SearchGeneral), "Search type: general|news|images")
	}
	cmd.Flags().IntVarP(&max, "max", "n", 0, "Maximum number of results to show")

	return cmd
}

func limitReport(r *v1alpha1.SearchReport, n int) {
	if len(r.Organic) > n {
		r.Organic = r.Organic[:n]
	}
	if len(r.News) > n {
		r.News = r.News[:n]
	}
	if len(r.Images) > n {
		r.Images = r.Images[:n]
	}
}
