// Package registry holds the static catalogue of tools clerk can run.
package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/klubi/clerk/pkg/apis/v1alpha1"
)

var (
	// ErrUnknownTool is returned when a tool name is not registered.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrMissingParameters is returned by Validate when required parameters
	// are absent.
	ErrMissingParameters = errors.New("missing required parameters")
)

// maxSuggestions caps Suggest.
const maxSuggestions = 10

// starters are natural-language openings offered as completions.
var starters = []string{
	"list files in",
	"read file",
	"create file",
	"delete file",
	"search for",
	"web search",
	"show directory",
	"make new file",
}

// Registry is an immutable set of tool descriptors. Build one with New and
// pass it to whatever needs it.
type Registry struct {
	tools []v1alpha1.ToolDescriptor
	index map[string]int
}

// New returns a registry holding the built-in tools.
func New() *Registry {
	return newRegistry(builtinTools())
}

// With returns a copy of r in which tools replace same-named entries and are
// otherwise appended.
func (r *Registry) With(tools ...v1alpha1.ToolDescriptor) *Registry {
	return newRegistry(append(r.All(), tools...))
}

func newRegistry(tools []v1alpha1.ToolDescriptor) *Registry {
	r := &Registry{index: make(map[string]int, len(tools))}
	for _, t := range tools {
		if i, ok := r.index[t.Name]; ok {
			r.tools[i] = t
			continue
		}
		r.index[t.Name] = len(r.tools)
		r.tools = append(r.tools, t)
	}
	return r
}

// Get returns the named descriptor.
func (r *Registry) Get(name string) (v1alpha1.ToolDescriptor, bool) {
	i, ok := r.index[name]
	if !ok {
		return v1alpha1.ToolDescriptor{}, false
	}
	return r.tools[i], true
}

// All returns every descriptor in registration order.
func (r *Registry) All() []v1alpha1.ToolDescriptor {
	return append([]v1alpha1.ToolDescriptor(nil), r.tools...)
}

// Names returns every tool name in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.tools))
	for i, t := range r.tools {
		names[i] = t.Name
	}
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.tools) }

// ByCategory returns the descriptors in category c.
func (r *Registry) ByCategory(c v1alpha1.ToolCategory) []v1alpha1.ToolDescriptor {
	var out []v1alpha1.ToolDescriptor
	for _, t := range r.tools {
		if t.Category == c {
			out = append(out, t)
		}
	}
	return out
}

// ParseCategory accepts a category value such as "file_system" or its
// hyphenated and upper-case spellings.
func ParseCategory(s string) (v1alpha1.ToolCategory, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	switch c := v1alpha1.ToolCategory(norm); c {
	case v1alpha1.CategoryFileSystem, v1alpha1.CategoryWebSearch, v1alpha1.CategoryUtility:
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q (want file_system, web_search or utility)", s)
}

// Search returns tools whose name or description contains query,
// ignoring case.
func (r *Registry) Search(query string) []v1alpha1.ToolDescriptor {
	q := strings.ToLower(query)
	var out []v1alpha1.ToolDescriptor
	for _, t := range r.tools {
		if strings.Contains(strings.ToLower(t.Name), q) || strings.Contains(strings.ToLower(t.Description), q) {
			out = append(out, t)
		}
	}
	return out
}

// Similar returns registered names that look like name, best match first.
func (r *Registry) Similar(name string) []string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, m := range fuzzy.Find(name, r.Names()) {
		seen[m.Str] = true
		out = append(out, m.Str)
	}
	for _, n := range r.Names() {
		if !seen[n] && (strings.Contains(name, n) || strings.Contains(n, name)) {
			out = append(out, n)
		}
	}
	return out
}

// Help renders a multi-line description of the named tool.
func (r *Registry) Help(name string) (string, error) {
	t, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Tool: %s\n", t.Name)
	fmt.Fprintf(&b, "Category: %s\n", t.Category)
	fmt.Fprintf(&b, "Description: %s\n", t.Description)

	if len(t.Parameters) > 0 {
		b.WriteString("\nParameters:\n")
		for _, p := range t.Parameters {
			req := "optional"
			if t.IsRequired(p.Name) {
				req = "required"
			}
			fmt.Fprintf(&b, "  - %s (%s): %s", p.Name, req, p.Description)
			if p.Default != nil {
				fmt.Fprintf(&b, " [default: %v]", p.Default)
			}
			b.WriteString("\n")
		}
	}

	if len(t.Examples) > 0 {
		b.WriteString("\nExamples:\n")
		for _, e := range t.Examples {
			fmt.Fprintf(&b, "  %s\n", e)
		}
	}
	return b.String(), nil
}

// MissingError names the required parameters absent from a Validate call.
// It matches ErrMissingParameters with errors.Is.
type MissingError struct {
	Tool   string
	Params []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingParameters, strings.Join(e.Params, ", "))
}

func (e *MissingError) Is(target error) bool { return target == ErrMissingParameters }

// Validate checks params against the named tool and returns a copy with
// defaults filled in for absent optional parameters.
func (r *Registry) Validate(name string, params map[string]any) (map[string]any, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	var missing []string
	for _, req := range t.Required {
		if _, ok := params[req]; !ok {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingError{Tool: name, Params: missing}
	}

	out := make(map[string]any, len(t.Parameters))
	for k, v := range params {
		out[k] = v
	}
	for _, p := range t.Parameters {
		if _, ok := out[p.Name]; !ok && p.Default != nil {
			out[p.Name] = p.Default
		}
	}
	return out, nil
}

// Suggest returns up to ten completions for partial drawn from tool names,
// natural-language starters and any extra candidates.
func (r *Registry) Suggest(partial string, extra ...string) []string {
	p := strings.ToLower(partial)
	var out []string
	add := func(candidates []string) {
		for _, c := range candidates {
			if len(out) == maxSuggestions {
				return
			}
			if strings.HasPrefix(c, p) {
				out = append(out, c)
			}
		}
	}
	add(r.Names())
	add(starters)
	add(extra)
	return out
}
