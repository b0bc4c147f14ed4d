// Package intent maps free text onto a clerk intent and the arguments that
// intent needs.
package intent

import (
	"strings"

	"github.com/klubi/clerk/pkg/apis/v1alpha1"
)

// Rule pairs an intent with the substrings that select it.
type Rule struct {
	Intent   v1alpha1.Intent
	Patterns []string
}

// rules is evaluated top to bottom and the first rule with any matching
// pattern wins, so the order here is part of the resolver's behavior.
var rules = []Rule{
	{
		Intent: v1alpha1.IntentListFiles,
		Patterns: []string{
			"list files", "show files", "ls", "dir", "directory contents",
			"what files are", "show directory", "list directory",
		},
	},
	{
		Intent: v1alpha1.IntentReadFile,
		Patterns: []string{
			"read file", "show file", "cat", "display file", "open file",
			"what's in", "show contents", "file contents", "read the file", "read ",
		},
	},
	{
		Intent: v1alpha1.IntentCreateFile,
		Patterns: []string{
			"create file", "create a file", "create a new file", "make file",
			"make a file", "new file", "touch", "write file", "generate file",
			"save to file",
		},
	},
	{
		Intent: v1alpha1.IntentDeleteFile,
		Patterns: []string{
			"delete file", "remove file", "rm", "del", "erase file", "get rid of", "unlink",
		},
	},
	{
		Intent: v1alpha1.IntentWebSearch,
		Patterns: []string{
			"search for", "web search", "google", "find online", "search web",
			"look up", "find information about",
		},
	},
}

var (
	pathIndicators    = []string{"in ", "at ", "from ", "to ", "called ", "named "}
	contentIndicators = []string{"with content", "with text", "containing", "with", "and write"}
	queryFillers      = []string{"about", "for", "on", "regarding", "concerning"}
)

// Rules returns a copy of the resolution table in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = Rule{Intent: r.Intent, Patterns: append([]string(nil), r.Patterns...)}
	}
	return out
}

// Resolve classifies text and extracts the arguments its intent consults.
// It never fails: text that matches no rule resolves to IntentUnknown.
func Resolve(text string) v1alpha1.ParsedCommand {
	cmd := v1alpha1.ParsedCommand{Intent: v1alpha1.IntentUnknown, RawText: text}
	t := fold(text)

	intent, pattern, ok := match(t.lower)
	if !ok {
		return cmd
	}
	cmd.Intent = intent

	switch intent {
	case v1alpha1.IntentWebSearch:
		cmd.Query = extractQuery(t, pattern)
	case v1alpha1.IntentCreateFile:
		cmd.Path = extractPath(t, pattern)
		cmd.Content = extractContent(t)
	default:
		cmd.Path = extractPath(t, pattern)
	}
	return cmd
}

func match(lower string) (v1alpha1.Intent, string, bool) {
	for _, r := range rules {
		for _, p := range r.Patterns {
			if strings.Contains(lower, p) {
				return r.Intent, p, true
			}
		}
	}
	return v1alpha1.IntentUnknown, "", false
}

func extractPath(t folded, pattern string) *string {
	rest := t.remove(pattern).trim()

	// A path-like token after any indicator beats a bare word after an
	// earlier one: "the file called notes.txt in docs" names notes.txt.
	var first *string
	for _, ind := range pathIndicators {
		i := strings.Index(rest.lower, ind)
		if i < 0 {
			continue
		}
		tokens := rest.from(i + len(ind)).fields()
		if len(tokens) == 0 {
			continue
		}
		p := stripQuotes(tokens[0].raw)
		if p == "" {
			continue
		}
		if pathLike(p) {
			return &p
		}
		if first == nil {
			first = &p
		}
	}
	if first != nil {
		return first
	}

	tokens := rest.fields()
	for _, tok := range tokens {
		if pathLike(tok.lower) {
			p := stripQuotes(tok.raw)
			return &p
		}
	}

	if len(tokens) > 0 && len(tokens) <= 2 {
		p := stripQuotes(rest.raw)
		if p != "" {
			return &p
		}
	}
	return nil
}

func pathLike(s string) bool {
	return strings.ContainsAny(s, "/.")
}

func extractContent(t folded) *string {
	for _, ind := range contentIndicators {
		i := strings.Index(t.lower, ind)
		if i < 0 {
			continue
		}
		c := stripQuotes(t.from(i + len(ind)).trim().raw)
		if c == "" {
			return nil
		}
		return &c
	}
	return nil
}

func extractQuery(t folded, pattern string) *string {
	q := t.remove(pattern).trim().lower
	for stripped := true; stripped; {
		stripped = false
		for _, w := range queryFillers {
			if strings.HasPrefix(q, w+" ") {
				q = strings.TrimSpace(q[len(w)+1:])
				stripped = true
			}
		}
	}
	if q == "" {
		return nil
	}
	return &q
}

func stripQuotes(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}
