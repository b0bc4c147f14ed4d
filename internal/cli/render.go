package cli

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/klubi/clerk/pkg/apis/v1alpha1"
)

const wrapWidth = 88

// palette holds the lipgloss styles used for panels.
type palette struct {
	Panel  lipgloss.Style
	Title  lipgloss.Style
	Link   lipgloss.Style
	Muted  lipgloss.Style
	Accent lipgloss.Style
}

func newPalette(r *lipgloss.Renderer) palette {
	return palette{
		Panel: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1),
		Title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		Link:   r.NewStyle().Foreground(lipgloss.Color("39")).Underline(true),
		Muted:  r.NewStyle().Faint(true),
		Accent: r.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
	}
}

// printer renders Results for humans. Failures go to errOut.
type printer struct {
	out    io.Writer
	errOut io.Writer
	plain  bool
	style  palette
}

func newPrinter(cmd *cobra.Command) *printer {
	out := cmd.OutOrStdout()
	r := lipgloss.NewRenderer(out)
	plain := color.NoColor
	if plain {
		r.SetColorProfile(termenv.Ascii)
	}
	return &printer{
		out:    out,
		errOut: cmd.ErrOrStderr(),
		plain:  plain,
		style:  newPalette(r),
	}
}

// renderOpts carries presentation flags of individual commands.
type renderOpts struct {
	detailed    bool
	showHidden  bool
	syntax      bool
	lineNumbers bool
}

// result prints res and returns ErrCommandFailed for failures.
func (p *printer) result(res v1alpha1.Result, o renderOpts) error {
	if done, err := printStructured(p.out, res); done {
		if err != nil {
			return err
		}
		if !res.OK() {
			return ErrCommandFailed
		}
		return nil
	}

	switch {
	case res.Failure != nil:
		p.failure(res.Failure)
		return ErrCommandFailed
	case res.Listing != nil:
		p.listing(res.Listing, o)
	case res.File != nil:
		p.file(res.File, o)
	case res.Written != nil:
		verb := "Created"
		if res.Written.Status == v1alpha1.WriteOverwritten {
			verb = "Wrote"
		}
		p.success("%s %s (%s)", verb, res.Written.Path, humanize.Bytes(uint64(res.Written.BytesWritten)))
	case res.Deleted != nil:
		p.success("Deleted %s %s", res.Deleted.Type, res.Deleted.Path)
	case res.Search != nil:
		p.search(res.Search)
	case res.Reply != nil:
		p.reply(res.Reply)
	}
	return nil
}

func (p *printer) success(format string, args ...any) {
	color.New(color.FgGreen).Fprintf(p.out, "✓ "+format+"\n", args...)
}

func (p *printer) failure(f *v1alpha1.Failure) {
	color.New(color.FgRed, color.Bold).Fprintf(p.errOut, "✗ %s: ", f.Kind)
	color.New(color.FgRed).Fprintln(p.errOut, f.Message)

	keys := make([]string, 0, len(f.Details))
	for k := range f.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(p.errOut, "  %s: %s\n", k, f.Details[k])
	}
}

func (p *printer) listing(l *v1alpha1.DirectoryListing, o renderOpts) {
	dirColor := color.New(color.FgBlue, color.Bold)
	var rows [][]string
	for _, e := range l.Items {
		if !o.showHidden && strings.HasPrefix(e.Name, ".") {
			continue
		}
		name := e.Name
		switch e.Type {
		case v1alpha1.EntryDirectory:
			name = dirColor.Sprint(name + "/")
		case v1alpha1.EntryUnknown:
			name = color.YellowString("%s (%s)", name, e.Error)
		}
		if !o.detailed {
			rows = append(rows, []string{name})
			continue
		}
		size := "-"
		if e.Size != nil {
			size = humanize.Bytes(uint64(*e.Size))
		}
		modified := "-"
		if !e.Modified.IsZero() {
			modified = humanize.Time(e.Modified)
		}
		perms := e.Permissions
		if perms == "" {
			perms = "---"
		}
		rows = append(rows, []string{perms, size, modified, name})
	}

	fmt.Fprintln(p.out, p.style.Muted.Render(l.Directory))
	if len(rows) == 0 {
		fmt.Fprintln(p.out, "(empty)")
		return
	}
	var headers []string
	if o.detailed {
		headers = []string{"PERMS", "SIZE", "MODIFIED", "NAME"}
	}
	printTable(p.out, headers, rows)
}

func (p *printer) file(f *v1alpha1.FileContent, o renderOpts) {
	content := f.Content
	if !f.Binary && o.syntax && !p.plain {
		content = highlight(f.Path, content)
	}
	if o.lineNumbers && !f.Binary {
		content = numberLines(content)
	}
	fmt.Fprint(p.out, content)
	if !strings.HasSuffix(content, "\n") {
		fmt.Fprintln(p.out)
	}
}

// highlight colors source code for a 256-color terminal. Content is returned
// unchanged when no lexer or formatter is available.
func highlight(path, content string) string {
	lexer := lexers.Match(filepath.Base(path))
	if lexer == nil {
		lexer = lexers.Analyse(content)
	}
	if lexer == nil {
		return content
	}
	lexer = chroma.Coalesce(lexer)

	formatter := formatters.Get("terminal256")
	style := styles.Get("monokai")

	it, err := lexer.Tokenise(nil, content)
	if err != nil {
		return content
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, it); err != nil {
		return content
	}
	return buf.String()
}

func numberLines(content string) string {
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	width := len(fmt.Sprint(len(lines)))
	var b strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&b, "%*d │ %s\n", width, i+1, line)
	}
	return b.String()
}

func (p *printer) search(r *v1alpha1.SearchReport) {
	header := fmt.Sprintf("Search results for %q", r.Query)
	if r.SearchType != "" && r.SearchType != v1alpha1.SearchGeneral {
		header += fmt.Sprintf(" [%s]", r.SearchType)
	}
	source := "via " + r.Source
	if r.Fallback {
		source += " (fallback)"
	}
	fmt.Fprintln(p.out, p.style.Title.Render(header)+"  "+p.style.Muted.Render(source))

	if r.Empty() {
		fmt.Fprintln(p.out, "No results found.")
		return
	}

	var blocks []string
	for i, o := range r.Organic {
		var b strings.Builder
		fmt.Fprintf(&b, "%s %s\n", p.style.Accent.Render(fmt.Sprintf("%d.", i+1)), o.Title)
		b.WriteString(p.style.Link.Render(o.Link))
		if o.Snippet != "" {
			b.WriteString("\n" + wrap(o.Snippet))
		}
		blocks = append(blocks, b.String())
	}
	if len(r.News) > 0 {
		var b strings.Builder
		b.WriteString(p.style.Title.Render("News"))
		for _, n := range r.News {
			meta := strings.TrimSpace(strings.Join(nonEmpty(n.Source, n.Date), " · "))
			fmt.Fprintf(&b, "\n• %s", n.Title)
			if meta != "" {
				b.WriteString(" " + p.style.Muted.Render("("+meta+")"))
			}
			b.WriteString("\n  " + p.style.Link.Render(n.Link))
		}
		blocks = append(blocks, b.String())
	}
	if len(r.Images) > 0 {
		var b strings.Builder
		b.WriteString(p.style.Title.Render("Images"))
		for _, img := range r.Images {
			link := img.Original
			if link == "" {
				link = img.Link
			}
			fmt.Fprintf(&b, "\n• %s\n  %s", img.Title, p.style.Link.Render(link))
		}
		blocks = append(blocks, b.String())
	}
	fmt.Fprintln(p.out, p.style.Panel.Render(strings.Join(blocks, "\n\n")))
}

func (p *printer) reply(c *v1alpha1.Completion) {
	body := renderMarkdown(c.Text, p.plain)
	if len(c.ToolCalls) > 0 {
		var b strings.Builder
		b.WriteString(p.style.Muted.Render("tools used:"))
		for _, tc := range c.ToolCalls {
			mark := "✓"
			if !tc.Known {
				mark = "?"
			}
			fmt.Fprintf(&b, "\n %s %s", mark, tc.Name)
		}
		body += "\n" + b.String()
	}
	title := "clerk"
	if c.Model != "" {
		title += " · " + c.Model
	}
	fmt.Fprintln(p.out, p.style.Title.Render(title))
	fmt.Fprintln(p.out, p.style.Panel.Render(body))
}

// renderMarkdown renders model output for the terminal. It falls back to the
// raw text when glamour cannot render it.
func renderMarkdown(md string, plain bool) string {
	opt := glamour.WithAutoStyle()
	if plain {
		opt = glamour.WithStandardStyle("notty")
	}
	r, err := glamour.NewTermRenderer(opt, glamour.WithWordWrap(wrapWidth))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}

func wrap(s string) string {
	return lipgloss.NewStyle().Width(wrapWidth).Render(s)
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
