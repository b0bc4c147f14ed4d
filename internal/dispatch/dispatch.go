// Package dispatch executes resolved commands against the filesystem or hands
// them to the search and language-model collaborators. Every outcome is a
// v1alpha1.Result; nothing is returned as a Go error.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/klubi/clerk/internal/fsops"
	"github.com/klubi/clerk/internal/intent"
	"github.com/klubi/clerk/internal/registry"
	"github.com/klubi/clerk/pkg/apis/v1alpha1"
)

// Searcher runs web searches.
type Searcher interface {
	Search(ctx context.Context, query string, t v1alpha1.SearchType) v1alpha1.Result
}

// Responder answers free text that matched no intent.
type Responder interface {
	Run(ctx context.Context, text string) v1alpha1.Result
}

// Dispatcher routes ParsedCommands to their handlers.
type Dispatcher struct {
	fs       *fsops.FS
	registry *registry.Registry
	searcher Searcher
	agent    Responder
	logger   *zap.Logger
}

// New creates a Dispatcher. reg supplies the required parameters and
// defaults of each tool an intent maps to. searcher and agent may be nil, in
// which case the corresponding intents fail with CollaboratorUnavailable.
func New(fs *fsops.FS, reg *registry.Registry, searcher Searcher, agent Responder, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{fs: fs, registry: reg, searcher: searcher, agent: agent, logger: logger}
}

// binding ties an intent to its registered tool and names the tool parameter
// each ParsedCommand field fills.
type binding struct {
	tool  string
	path  string
	query string
}

var bindings = map[v1alpha1.Intent]binding{
	v1alpha1.IntentListFiles:  {tool: "list_directory", path: "directory_path"},
	v1alpha1.IntentReadFile:   {tool: "read_file", path: "file_path"},
	v1alpha1.IntentCreateFile: {tool: "create_file", path: "file_path"},
	v1alpha1.IntentDeleteFile: {tool: "delete_file", path: "file_path"},
	v1alpha1.IntentWebSearch:  {tool: "web_search", query: "query"},
}

// params validates cmd against the tool its intent maps to and returns the
// parameters with descriptor defaults applied.
func (d *Dispatcher) params(cmd v1alpha1.ParsedCommand) (map[string]any, *v1alpha1.Result) {
	b := bindings[cmd.Intent]
	in := map[string]any{}
	if v, ok := required(cmd.Path); ok && b.path != "" {
		in[b.path] = v
	}
	if v, ok := required(cmd.Query); ok && b.query != "" {
		in[b.query] = v
	}
	if cmd.Content != nil && cmd.Intent == v1alpha1.IntentCreateFile {
		in["content"] = *cmd.Content
	}

	out, err := d.registry.Validate(b.tool, in)
	var me *registry.MissingError
	switch {
	case errors.As(err, &me):
		field := me.Params[0]
		switch field {
		case b.path:
			field = "path"
		case b.query:
			field = "query"
		}
		res := missing(field, cmd.Intent)
		return nil, &res
	case err != nil:
		res := v1alpha1.Fail(v1alpha1.FailureInvalidParameter, fmt.Sprintf("%s: %v", cmd.Intent, err))
		return nil, &res
	}
	return out, nil
}

func str(params map[string]any, name string) string {
	if v, ok := params[name]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

// FS returns the filesystem the dispatcher operates on.
func (d *Dispatcher) FS() *fsops.FS { return d.fs }

// Run resolves text and dispatches the result.
func (d *Dispatcher) Run(ctx context.Context, text string) (v1alpha1.ParsedCommand, v1alpha1.Result) {
	cmd := intent.Resolve(text)
	return cmd, d.Dispatch(ctx, cmd)
}

// Dispatch executes cmd. Only the fields relevant to cmd.Intent are read.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd v1alpha1.ParsedCommand) v1alpha1.Result {
	id := RequestID(ctx)
	if id == "" {
		id = uuid.NewString()
		ctx = WithRequestID(ctx, id)
	}
	start := time.Now()

	res := d.dispatch(ctx, cmd)

	fields := []zap.Field{
		zap.String("requestID", id),
		zap.String("intent", string(cmd.Intent)),
		zap.String("status", string(res.Status)),
		zap.Duration("elapsed", time.Since(start)),
	}
	if res.Failure != nil {
		d.logger.Info("command failed", append(fields,
			zap.String("kind", string(res.Failure.Kind)),
			zap.String("message", res.Failure.Message),
		)...)
	} else {
		d.logger.Info("command dispatched", fields...)
	}
	return res
}

func (d *Dispatcher) dispatch(ctx context.Context, cmd v1alpha1.ParsedCommand) v1alpha1.Result {
	var p map[string]any
	if _, ok := bindings[cmd.Intent]; ok {
		var fail *v1alpha1.Result
		if p, fail = d.params(cmd); fail != nil {
			return *fail
		}
	}

	switch cmd.Intent {
	case v1alpha1.IntentListFiles:
		listing, err := d.fs.List(str(p, "directory_path"))
		if err != nil {
			return FromError(err)
		}
		return v1alpha1.SucceedListing(listing)

	case v1alpha1.IntentReadFile:
		file, err := d.fs.Read(str(p, "file_path"))
		if err != nil {
			return FromError(err)
		}
		return v1alpha1.SucceedFile(file)

	case v1alpha1.IntentCreateFile:
		written, err := d.fs.Create(str(p, "file_path"), str(p, "content"))
		if err != nil {
			return FromError(err)
		}
		return v1alpha1.SucceedWritten(written)

	case v1alpha1.IntentDeleteFile:
		deleted, err := d.fs.Delete(str(p, "file_path"))
		if err != nil {
			return FromError(err)
		}
		return v1alpha1.SucceedDeleted(deleted)

	case v1alpha1.IntentWebSearch:
		if d.searcher == nil {
			return v1alpha1.Fail(v1alpha1.FailureCollaboratorUnavailable, "web search is not configured")
		}
		return d.searcher.Search(ctx, str(p, "query"), cmd.SearchType)

	case v1alpha1.IntentUnknown:
		if d.agent == nil {
			return v1alpha1.Fail(v1alpha1.FailureCollaboratorUnavailable, "no language model configured")
		}
		return d.agent.Run(ctx, cmd.RawText)
	}

	return v1alpha1.Fail(v1alpha1.FailureInvalidParameter, fmt.Sprintf("unsupported intent %q", cmd.Intent))
}

func required(v *string) (string, bool) {
	if v == nil || *v == "" {
		return "", false
	}
	return *v, true
}

func missing(param string, in v1alpha1.Intent) v1alpha1.Result {
	return v1alpha1.FailWithDetails(v1alpha1.FailureMissingParameter,
		fmt.Sprintf("%s requires a %s", in, param),
		map[string]string{"parameter": param})
}

// FromError converts a filesystem error into a failed Result.
func FromError(err error) v1alpha1.Result {
	msg := err.Error()
	var details map[string]string
	var pe *fsops.PathError
	if errors.As(err, &pe) {
		details = map[string]string{"path": pe.Path}
	}
	var tl *fsops.TooLargeError
	if errors.As(err, &tl) {
		details = map[string]string{
			"path":  tl.Path,
			"size":  fmt.Sprint(tl.Size),
			"limit": fmt.Sprint(tl.Limit),
		}
	}
	return v1alpha1.FailWithDetails(Kind(err), msg, details)
}

// Kind maps an error onto a failure kind.
func Kind(err error) v1alpha1.FailureKind {
	switch {
	case errors.Is(err, fsops.ErrNotFound):
		return v1alpha1.FailureNotFound
	case errors.Is(err, fsops.ErrNotADirectory):
		return v1alpha1.FailureNotADirectory
	case errors.Is(err, fsops.ErrNotAFile):
		return v1alpha1.FailureNotAFile
	case errors.Is(err, fsops.ErrAlreadyExists):
		return v1alpha1.FailureAlreadyExists
	case errors.Is(err, fsops.ErrNotEmpty):
		return v1alpha1.FailureNotEmpty
	case errors.Is(err, fsops.ErrTooLarge):
		return v1alpha1.FailureTooLarge
	case errors.Is(err, fsops.ErrPermission):
		return v1alpha1.FailurePermissionDenied
	case errors.Is(err, fsops.ErrInvalidGlob):
		return v1alpha1.FailureInvalidParameter
	default:
		return v1alpha1.FailureIO
	}
}
