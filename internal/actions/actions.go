// Package actions defines the closed set of tool-provider actions clerk knows
// how to run, and the Provider interface that runs them.
package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/klubi/clerk/internal/serpapi"
)

// Action identifies a tool-provider action.
type Action string

const (
	ListFiles    Action = "FILETOOL_LIST_FILES"
	OpenFile     Action = "FILETOOL_OPEN_FILE"
	CreateFile   Action = "FILETOOL_CREATE_FILE"
	WriteFile    Action = "FILETOOL_WRITE"
	FindFile     Action = "FILETOOL_FIND_FILE"
	Search       Action = "SERPAPI_SEARCH"
	GoogleSearch Action = "SERPAPI_GOOGLE_SEARCH"
	NewsSearch   Action = "SERPAPI_NEWS_SEARCH"
	ImageSearch  Action = "SERPAPI_IMAGE_SEARCH"

	// Unknown stands for any name outside the catalogue.
	Unknown Action = "UNKNOWN_ACTION"
)

// Param describes one action parameter.
type Param struct {
	Name        string
	Type        string // string, integer, boolean
	Description string
	Required    bool
}

// Declaration describes an action to a language model.
type Declaration struct {
	Action      Action
	Description string
	Params      []Param
}

var catalogue = []Declaration{
	{
		Action:      ListFiles,
		Description: "List files and directories. Lists the working directory when path is omitted.",
		Params: []Param{
			{Name: "path", Type: "string", Description: "Directory to list"},
		},
	},
	{
		Action:      OpenFile,
		Description: "Open a file and return its contents.",
		Params: []Param{
			{Name: "file_path", Type: "string", Description: "Path of the file to open", Required: true},
		},
	},
	{
		Action:      CreateFile,
		Description: "Create a new empty file or directory. Fails if the path exists.",
		Params: []Param{
			{Name: "path", Type: "string", Description: "Path to create", Required: true},
			{Name: "is_directory", Type: "boolean", Description: "Create a directory instead of a file"},
		},
	},
	{
		Action:      WriteFile,
		Description: "Write text to a file, replacing its contents.",
		Params: []Param{
			{Name: "file_path", Type: "string", Description: "Path of the file to write", Required: true},
			{Name: "text", Type: "string", Description: "Text to write", Required: true},
		},
	},
	{
		Action:      FindFile,
		Description: "Find files matching a glob pattern such as **/*.go.",
		Params: []Param{
			{Name: "pattern", Type: "string", Description: "Glob pattern", Required: true},
			{Name: "path", Type: "string", Description: "Directory to search from"},
		},
	},
	{
		Action:      Search,
		Description: "Search the web with Google via SerpAPI.",
		Params:      searchParams,
	},
	{
		Action:      GoogleSearch,
		Description: "Run a Google web search via SerpAPI.",
		Params:      searchParams,
	},
	{
		Action:      NewsSearch,
		Description: "Search Google News via SerpAPI.",
		Params:      searchParams,
	},
	{
		Action:      ImageSearch,
		Description: "Search Google Images via SerpAPI.",
		Params:      searchParams,
	},
}

var searchParams = []Param{
	{Name: "query", Type: "string", Description: "Search query", Required: true},
	{Name: "num", Type: "integer", Description: "Maximum number of results"},
}

// Parse maps a name onto a catalogued action, ignoring case. Any other name
// yields Unknown.
func Parse(name string) Action {
	upper := Action(strings.ToUpper(strings.TrimSpace(name)))
	for _, d := range catalogue {
		if d.Action == upper {
			return upper
		}
	}
	return Unknown
}

// Catalogue returns every declaration in a fixed order.
func Catalogue() []Declaration {
	return append([]Declaration(nil), catalogue...)
}

// Lookup returns the declaration for a.
func Lookup(a Action) (Declaration, bool) {
	for _, d := range catalogue {
		if d.Action == a {
			return d, true
		}
	}
	return Declaration{}, false
}

// IsSearch reports whether a is one of the SerpAPI actions.
func (a Action) IsSearch() bool {
	return strings.HasPrefix(string(a), "SERPAPI_")
}

// Provider runs actions against some backend.
type Provider interface {
	// Name identifies the backend in status output and diagnostics.
	Name() string
	// Actions lists the actions the backend can currently run.
	Actions() []Action
	// Execute runs one action with the given parameters.
	Execute(ctx context.Context, a Action, params map[string]any) (map[string]any, error)
}

// SearchBackend is implemented by providers whose search actions call a
// SerpAPI client in-process.
type SearchBackend interface {
	SearchClient() *serpapi.Client
}

// Supports reports whether p can run a.
func Supports(p Provider, a Action) bool {
	for _, have := range p.Actions() {
		if have == a {
			return true
		}
	}
	return false
}

// Error reports a failed action.
type Error struct {
	Action Action
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("action %s: %v", e.Action, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
