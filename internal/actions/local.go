package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/klubi/clerk/internal/fsops"
	"github.com/klubi/clerk/internal/serpapi"
	"github.com/klubi/clerk/pkg/apis/v1alpha1"
)

// ErrMissingParam is wrapped when a required action parameter is absent.
var ErrMissingParam = errors.New("missing required parameter")

// Local runs file actions on the local filesystem and search actions through
// a direct SerpAPI client. It stands in for a hosted tool provider.
type Local struct {
	fs     *fsops.FS
	search *serpapi.Client
}

// NewLocal returns a Local provider. search may be nil, in which case only
// file actions are offered.
func NewLocal(fs *fsops.FS, search *serpapi.Client) *Local {
	return &Local{fs: fs, search: search}
}

func (l *Local) Name() string { return "local" }

// SearchClient returns the client behind the search actions, or nil when
// none is configured.
func (l *Local) SearchClient() *serpapi.Client {
	if !l.search.Configured() {
		return nil
	}
	return l.search
}

func (l *Local) Actions() []Action {
	out := []Action{ListFiles, OpenFile, CreateFile, WriteFile, FindFile}
	if l.search.Configured() {
		out = append(out, Search, NewsSearch, ImageSearch)
	}
	return out
}

type pathParams struct {
	Path string `mapstructure:"path"`
}

type openParams struct {
	FilePath string `mapstructure:"file_path"`
}

type createParams struct {
	Path        string `mapstructure:"path"`
	IsDirectory bool   `mapstructure:"is_directory"`
}

type writeParams struct {
	FilePath string `mapstructure:"file_path"`
	Text     string `mapstructure:"text"`
}

type findParams struct {
	Pattern string `mapstructure:"pattern"`
	Path    string `mapstructure:"path"`
}

type searchArgs struct {
	Query string `mapstructure:"query"`
	Num   int    `mapstructure:"num"`
}

// Execute runs a against the local backends.
func (l *Local) Execute(ctx context.Context, a Action, params map[string]any) (map[string]any, error) {
	out, err := l.execute(ctx, a, params)
	if err != nil {
		return nil, &Error{Action: a, Err: err}
	}
	return out, nil
}

func (l *Local) execute(ctx context.Context, a Action, params map[string]any) (map[string]any, error) {
	switch a {
	case ListFiles:
		var p pathParams
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		if p.Path == "" {
			p.Path = "."
		}
		listing, err := l.fs.List(p.Path)
		if err != nil {
			return nil, err
		}
		return toMap(listing)

	case OpenFile:
		var p openParams
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		if p.FilePath == "" {
			return nil, fmt.Errorf("%w: file_path", ErrMissingParam)
		}
		content, err := l.fs.Read(p.FilePath)
		if err != nil {
			return nil, err
		}
		return toMap(content)

	case CreateFile:
		var p createParams
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		if p.Path == "" {
			return nil, fmt.Errorf("%w: path", ErrMissingParam)
		}
		if p.IsDirectory {
			return l.mkdir(p.Path)
		}
		written, err := l.fs.Create(p.Path, "")
		if err != nil {
			return nil, err
		}
		return toMap(written)

	case WriteFile:
		var p writeParams
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		if p.FilePath == "" {
			return nil, fmt.Errorf("%w: file_path", ErrMissingParam)
		}
		written, err := l.fs.Write(p.FilePath, p.Text, true)
		if err != nil {
			return nil, err
		}
		return toMap(written)

	case FindFile:
		var p findParams
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		if p.Pattern == "" {
			return nil, fmt.Errorf("%w: pattern", ErrMissingParam)
		}
		if p.Path == "" {
			p.Path = "."
		}
		matches, err := l.fs.Find(p.Path, p.Pattern)
		if err != nil {
			return nil, err
		}
		return map[string]any{"directory": l.fs.Abs(p.Path), "matches": matches}, nil

	case Search, NewsSearch, ImageSearch:
		var p searchArgs
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		if p.Query == "" {
			return nil, fmt.Errorf("%w: query", ErrMissingParam)
		}
		return l.search.SearchRaw(ctx, p.Query, SearchTypeOf(a), p.Num)
	}
	return nil, fmt.Errorf("unsupported action %q", a)
}

func (l *Local) mkdir(path string) (map[string]any, error) {
	abs, err := l.fs.Mkdir(path)
	if err != nil {
		return nil, err
	}
	return map[string]any{"path": abs, "type": string(v1alpha1.EntryDirectory), "status": string(v1alpha1.WriteCreated)}, nil
}

// SearchTypeOf returns the search type a SerpAPI action targets.
func SearchTypeOf(a Action) v1alpha1.SearchType {
	switch a {
	case NewsSearch:
		return v1alpha1.SearchNews
	case ImageSearch:
		return v1alpha1.SearchImages
	}
	return v1alpha1.SearchGeneral
}

func decode(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}

// toMap converts a payload struct into the generic shape providers return.
func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
