// Package tui provides the interactive clerk console: a transcript view, an
// input line with tab completion and a status header.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/klubi/clerk/internal/intent"
	"github.com/klubi/clerk/internal/registry"
	"github.com/klubi/clerk/pkg/apis/v1alpha1"
)

// Backend executes commands for the console. The CLI's in-process and
// remote backends both satisfy it.
type Backend interface {
	Dispatch(ctx context.Context, cmd v1alpha1.ParsedCommand) (*v1alpha1.Result, error)
	Status(ctx context.Context) (*v1alpha1.AgentStatus, error)
}

// maxHistory caps the inputs remembered for completion and recall.
const maxHistory = 100

// builtins are console commands handled without the backend.
var builtins = []string{"help", "tools", "clear", "exit", "quit"}

// App is the interactive console.
type App struct {
	app    *tview.Application
	pages  *tview.Pages
	header *tview.TextView
	footer *tview.TextView
	output *tview.TextView
	input  *tview.InputField

	backend  Backend
	registry *registry.Registry
	ctx      context.Context

	mu      sync.Mutex
	status  *v1alpha1.AgentStatus
	lastErr error
	history []string
	recall  int
	busy    bool
}

// New creates the console. Call Run to start it.
func New(backend Backend, reg *registry.Registry) *App {
	a := &App{
		app:      tview.NewApplication(),
		backend:  backend,
		registry: reg,
		ctx:      context.Background(),
	}

	a.header = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	a.header.SetBackgroundColor(tcell.ColorDarkBlue)

	a.footer = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	a.footer.SetBackgroundColor(tcell.ColorDarkBlue)

	a.output = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	a.output.SetBorder(true).
		SetTitle(" clerk ").
		SetBorderColor(tcell.ColorDodgerBlue)

	a.input = tview.NewInputField().
		SetLabel(" > ").
		SetFieldBackgroundColor(tcell.ColorBlack).
		SetLabelColor(tcell.ColorYellow)
	a.input.SetAutocompleteFunc(a.complete)
	a.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := strings.TrimSpace(a.input.GetText())
		if text == "" {
			return
		}
		a.input.SetText("")
		a.submit(text)
	})

	mainFlex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.header, 1, 0, false).
		AddItem(a.output, 0, 1, false).
		AddItem(a.input, 1, 0, true).
		AddItem(a.footer, 1, 0, false)

	a.pages = tview.NewPages().
		AddPage("main", mainFlex, true, true)

	a.updateHeader()
	a.updateFooter()
	a.setupKeyBindings()

	fmt.Fprint(a.output, welcome)

	a.app.SetRoot(a.pages, true).SetFocus(a.input)

	return a
}

const welcome = `[::b]Welcome to clerk.[::-]
Type a request such as [yellow]list files in src[-], [yellow]read file README.md[-] or [yellow]search for go 1.25 release notes[-].
Anything else is answered by the language model. Type [yellow]help[-] for console commands.

`

// Run starts the status poller and the event loop. It returns when the user
// quits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.ctx = ctx
	a.refresh()
	a.updateHeader()

	done := make(chan struct{})
	go poll(ctx, done, 30*time.Second, func() {
		a.refresh()
		a.app.QueueUpdateDraw(a.updateHeader)
	}, a.app.Stop)

	err := a.app.Run()
	close(done)
	return err
}

// poll calls tick every interval until done is closed or ctx is cancelled.
// Cancellation also calls stop.
func poll(ctx context.Context, done <-chan struct{}, interval time.Duration, tick, stop func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			stop()
			return
		case <-ticker.C:
			tick()
		}
	}
}

// ---------------------------------------------------------------------------
// Key bindings
// ---------------------------------------------------------------------------

func (a *App) setupKeyBindings() {
	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if a.pages.HasPage("confirm") {
			return event
		}

		switch event.Key() {
		case tcell.KeyCtrlL:
			a.output.Clear()
			return nil
		case tcell.KeyUp:
			if a.input.HasFocus() {
				a.input.SetText(a.recallHistory(-1))
				return nil
			}
		case tcell.KeyDown:
			if a.input.HasFocus() {
				a.input.SetText(a.recallHistory(1))
				return nil
			}
		case tcell.KeyPgUp, tcell.KeyPgDn:
			row, col := a.output.GetScrollOffset()
			_, _, _, height := a.output.GetInnerRect()
			if event.Key() == tcell.KeyPgUp {
				row -= height
			} else {
				row += height
			}
			if row < 0 {
				row = 0
			}
			a.output.ScrollTo(row, col)
			return nil
		}

		return event
	})
}

// ---------------------------------------------------------------------------
// Completion and history
// ---------------------------------------------------------------------------

// complete returns completions for the input line: tool names, common
// phrasings, console commands and previous inputs.
func (a *App) complete(current string) []string {
	if strings.TrimSpace(current) == "" {
		return nil
	}
	a.mu.Lock()
	extra := append(append([]string(nil), builtins...), a.history...)
	a.mu.Unlock()

	matches := a.registry.Suggest(current, extra...)
	seen := make(map[string]bool, len(matches))
	out := matches[:0]
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

func (a *App) remember(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, h := range a.history {
		if h == text {
			a.history = append(a.history[:i], a.history[i+1:]...)
			break
		}
	}
	a.history = append(a.history, text)
	if len(a.history) > maxHistory {
		a.history = a.history[len(a.history)-maxHistory:]
	}
	a.recall = len(a.history)
}

// recallHistory moves through previous inputs; step is -1 for older and 1
// for newer. Moving past the newest entry yields an empty line.
func (a *App) recallHistory(step int) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recall += step
	if a.recall < 0 {
		a.recall = 0
	}
	if a.recall >= len(a.history) {
		a.recall = len(a.history)
		return ""
	}
	return a.history[a.recall]
}

// ---------------------------------------------------------------------------
// Command execution
// ---------------------------------------------------------------------------

func (a *App) submit(text string) {
	a.remember(text)
	fmt.Fprintf(a.output, "[yellow::b]> %s[-::-]\n", tview.Escape(text))

	switch strings.ToLower(text) {
	case "exit", "quit":
		a.app.Stop()
		return
	case "clear":
		a.output.Clear()
		return
	case "help":
		fmt.Fprint(a.output, helpText)
		return
	case "tools":
		fmt.Fprint(a.output, formatTools(a.registry.All()))
		return
	}

	cmd := intent.Resolve(text)
	if cmd.Intent == v1alpha1.IntentDeleteFile && cmd.Path != nil {
		a.confirmDelete(cmd)
		return
	}
	a.execute(cmd)
}

// execute dispatches cmd off the event loop and appends the outcome.
func (a *App) execute(cmd v1alpha1.ParsedCommand) {
	a.mu.Lock()
	if a.busy {
		a.mu.Unlock()
		fmt.Fprint(a.output, "[gray]still working on the previous request[-]\n\n")
		return
	}
	a.busy = true
	a.mu.Unlock()
	a.updateFooter()

	go func() {
		res, err := a.backend.Dispatch(a.ctx, cmd)

		var text string
		if err != nil {
			text = fmt.Sprintf("[red]error: %s[-]\n", tview.Escape(err.Error()))
		} else {
			text = formatResult(*res)
		}

		a.mu.Lock()
		a.busy = false
		a.mu.Unlock()

		a.app.QueueUpdateDraw(func() {
			fmt.Fprint(a.output, text+"\n")
			a.output.ScrollToEnd()
			a.updateFooter()
		})
	}()
}

func (a *App) confirmDelete(cmd v1alpha1.ParsedCommand) {
	modal := tview.NewModal().
		SetText(fmt.Sprintf("Delete %q?", *cmd.Path)).
		AddButtons([]string{"Delete", "Cancel"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			a.pages.RemovePage("confirm")
			a.app.SetFocus(a.input)
			if buttonLabel == "Delete" {
				a.execute(cmd)
				return
			}
			fmt.Fprint(a.output, "[gray]cancelled[-]\n\n")
		})
	modal.SetBackgroundColor(tcell.ColorDarkRed)

	a.pages.AddPage("confirm", modal, true, true)
}

const helpText = `[::b]Console commands[::-]
  help     this text
  tools    list known tools
  clear    clear the transcript (also Ctrl+L)
  exit     leave the console (also Ctrl+C)
Tab completes, Up and Down recall previous inputs, PgUp and PgDn scroll.

`

// ---------------------------------------------------------------------------
// Result rendering
// ---------------------------------------------------------------------------

// formatResult renders a Result as tview-tagged text.
func formatResult(res v1alpha1.Result) string {
	var b strings.Builder
	switch {
	case res.Failure != nil:
		f := res.Failure
		fmt.Fprintf(&b, "[red::b]✗ %s:[-::-] [red]%s[-]\n", f.Kind, tview.Escape(f.Message))
		keys := make([]string, 0, len(f.Details))
		for k := range f.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s: %s\n", k, tview.Escape(f.Details[k]))
		}
	case res.Listing != nil:
		fmt.Fprintf(&b, "[gray]%s[-]\n", tview.Escape(res.Listing.Directory))
		if len(res.Listing.Items) == 0 {
			b.WriteString("(empty)\n")
		}
		for _, e := range res.Listing.Items {
			switch e.Type {
			case v1alpha1.EntryDirectory:
				fmt.Fprintf(&b, "  [blue::b]%s/[-::-]\n", tview.Escape(e.Name))
			case v1alpha1.EntryFile:
				size := ""
				if e.Size != nil {
					size = humanize.Bytes(uint64(*e.Size))
				}
				fmt.Fprintf(&b, "  %s [gray]%s[-]\n", tview.Escape(e.Name), size)
			default:
				fmt.Fprintf(&b, "  [yellow]%s (%s)[-]\n", tview.Escape(e.Name), tview.Escape(e.Error))
			}
		}
	case res.File != nil:
		fmt.Fprintf(&b, "[gray]%s (%s)[-]\n", tview.Escape(res.File.Path), humanize.Bytes(uint64(res.File.Size)))
		b.WriteString(tview.Escape(res.File.Content))
		if !strings.HasSuffix(res.File.Content, "\n") {
			b.WriteString("\n")
		}
	case res.Written != nil:
		fmt.Fprintf(&b, "[green]✓ %s %s (%s)[-]\n", res.Written.Status, tview.Escape(res.Written.Path),
			humanize.Bytes(uint64(res.Written.BytesWritten)))
	case res.Deleted != nil:
		fmt.Fprintf(&b, "[green]✓ deleted %s %s[-]\n", res.Deleted.Type, tview.Escape(res.Deleted.Path))
	case res.Search != nil:
		b.WriteString(formatSearch(res.Search))
	case res.Reply != nil:
		b.WriteString(tview.Escape(res.Reply.Text))
		b.WriteString("\n")
		for _, tc := range res.Reply.ToolCalls {
			fmt.Fprintf(&b, "[gray]  used %s[-]\n", tc.Name)
		}
	}
	return b.String()
}

func formatSearch(r *v1alpha1.SearchReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[::b]Search results for %q[::-] [gray]via %s[-]\n", tview.Escape(r.Query), r.Source)
	if r.Empty() {
		b.WriteString("No results found.\n")
		return b.String()
	}
	for i, o := range r.Organic {
		fmt.Fprintf(&b, "[teal]%d.[-] %s\n   [blue]%s[-]\n", i+1, tview.Escape(o.Title), tview.Escape(o.Link))
		if o.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", tview.Escape(o.Snippet))
		}
	}
	for _, n := range r.News {
		fmt.Fprintf(&b, "• %s [gray]%s[-]\n   [blue]%s[-]\n", tview.Escape(n.Title), tview.Escape(n.Source), tview.Escape(n.Link))
	}
	for _, img := range r.Images {
		link := img.Original
		if link == "" {
			link = img.Link
		}
		fmt.Fprintf(&b, "• %s\n   [blue]%s[-]\n", tview.Escape(img.Title), tview.Escape(link))
	}
	return b.String()
}

func formatTools(tools []v1alpha1.ToolDescriptor) string {
	var b strings.Builder
	b.WriteString("[::b]Tools[::-]\n")
	for _, t := range tools {
		fmt.Fprintf(&b, "  [yellow]%-14s[-] [gray]%-12s[-] %s\n", t.Name, t.Category, tview.Escape(t.Description))
	}
	b.WriteString("\n")
	return b.String()
}

// ---------------------------------------------------------------------------
// Header & Footer
// ---------------------------------------------------------------------------

func (a *App) refresh() {
	st, err := a.backend.Status(a.ctx)
	a.mu.Lock()
	if err == nil {
		a.status = st
	}
	a.lastErr = err
	a.mu.Unlock()
}

func (a *App) updateHeader() {
	a.mu.Lock()
	st, err := a.status, a.lastErr
	a.mu.Unlock()
	a.header.SetText(headerText(st, err))
}

func headerText(st *v1alpha1.AgentStatus, err error) string {
	if err != nil {
		return fmt.Sprintf(" [::b]clerk[::-] | [red]status unavailable: %s[-]", tview.Escape(err.Error()))
	}
	if st == nil {
		return " [::b]clerk[::-]"
	}
	llm := st.LLMProvider
	if st.Model != "" {
		llm += "/" + st.Model
	}
	return fmt.Sprintf(" [::b]clerk %s[::-] | %s | llm: %s | tools: %s (%d) | %s",
		st.Version, tview.Escape(st.Workspace), llm, st.ToolProvider, st.AvailableTools, keySummary(st.Keys))
}

func keySummary(keys map[string]bool) string {
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, k := range names {
		short := strings.TrimSuffix(strings.TrimSuffix(k, "_KEY"), "_API")
		if keys[k] {
			parts = append(parts, "[green]"+strings.ToLower(short)+"[-]")
		} else {
			parts = append(parts, "[red]"+strings.ToLower(short)+"[-]")
		}
	}
	return strings.Join(parts, " ")
}

func (a *App) updateFooter() {
	a.mu.Lock()
	busy := a.busy
	a.mu.Unlock()

	text := " [yellow]<enter>[white]Run  [yellow]<tab>[white]Complete  [yellow]<up/down>[white]History  [yellow]<ctrl+l>[white]Clear  [yellow]<ctrl+c>[white]Quit"
	if busy {
		text += "  [green]working...[-]"
	}
	a.footer.SetText(text)
}
