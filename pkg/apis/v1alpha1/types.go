// Package v1alpha1 defines the public clerk types shared by the CLI, the HTTP
// surface and its client.
package v1alpha1

import "time"

const (
	APIVersion = "clerk.dev/v1alpha1"
)

// Resource kinds
const (
	KindCommand = "Command"
)

// TypeMeta describes the API version and kind of a resource.
type TypeMeta struct {
	APIVersion string `json:"apiVersion" yaml:"apiVersion"`
	Kind       string `json:"kind" yaml:"kind"`
}

// ObjectMeta holds metadata common to all resources.
type ObjectMeta struct {
	Name   string            `json:"name" yaml:"name"`
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// -------------------------------------------------------
// Intent
// -------------------------------------------------------

// Intent is the category of operation a piece of text resolves to.
type Intent string

const (
	IntentListFiles  Intent = "ListFiles"
	IntentReadFile   Intent = "ReadFile"
	IntentCreateFile Intent = "CreateFile"
	IntentDeleteFile Intent = "DeleteFile"
	IntentWebSearch  Intent = "WebSearch"
	IntentUnknown    Intent = "Unknown"
)

// Intents lists every intent in resolution order, Unknown last.
var Intents = []Intent{
	IntentListFiles,
	IntentReadFile,
	IntentCreateFile,
	IntentDeleteFile,
	IntentWebSearch,
	IntentUnknown,
}

// Valid reports whether i is one of the known intents.
func (i Intent) Valid() bool {
	for _, known := range Intents {
		if i == known {
			return true
		}
	}
	return false
}

// SearchType selects which kind of web results a search returns.
type SearchType string

const (
	SearchGeneral SearchType = "general"
	SearchNews    SearchType = "news"
	SearchImages  SearchType = "images"
)

// Valid reports whether t is a known search type. The zero value is valid and
// means general.
func (t SearchType) Valid() bool {
	switch t {
	case "", SearchGeneral, SearchNews, SearchImages:
		return true
	}
	return false
}

// OrDefault returns t, or SearchGeneral when t is empty.
func (t SearchType) OrDefault() SearchType {
	if t == "" {
		return SearchGeneral
	}
	return t
}

// ParsedCommand is the resolved form of one user input. Which optional fields
// are meaningful depends on Intent; the others are ignored.
type ParsedCommand struct {
	Intent     Intent     `json:"intent" yaml:"intent"`
	Path       *string    `json:"path,omitempty" yaml:"path,omitempty"`
	Content    *string    `json:"content,omitempty" yaml:"content,omitempty"`
	Query      *string    `json:"query,omitempty" yaml:"query,omitempty"`
	SearchType SearchType `json:"searchType,omitempty" yaml:"searchType,omitempty"`
	RawText    string     `json:"rawText" yaml:"rawText"`
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// Value returns the dereferenced string, or "" when p is nil.
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// -------------------------------------------------------
// Result
// -------------------------------------------------------

// ResultStatus discriminates a Result.
type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusFailure ResultStatus = "failure"
)

// FailureKind classifies why an operation failed.
type FailureKind string

const (
	FailureNotFound                FailureKind = "NotFound"
	FailureNotADirectory           FailureKind = "NotADirectory"
	FailureNotAFile                FailureKind = "NotAFile"
	FailureAlreadyExists           FailureKind = "AlreadyExists"
	FailureNotEmpty                FailureKind = "NotEmpty"
	FailureTooLarge                FailureKind = "TooLarge"
	FailureMissingParameter        FailureKind = "MissingParameter"
	FailureInvalidParameter        FailureKind = "InvalidParameter"
	FailureDecodeFailure           FailureKind = "DecodeFailure"
	FailurePermissionDenied        FailureKind = "PermissionDenied"
	FailureIO                      FailureKind = "IOFailure"
	FailureCollaboratorUnavailable FailureKind = "CollaboratorUnavailable"
)

// Failure describes a failed operation.
type Failure struct {
	Kind    FailureKind       `json:"kind" yaml:"kind"`
	Message string            `json:"message" yaml:"message"`
	Details map[string]string `json:"details,omitempty" yaml:"details,omitempty"`
}

// Result is the single outcome shape of every dispatched operation. A success
// carries exactly one payload and no Failure; a failure carries only Failure.
// Build values with the Succeed and Fail helpers.
type Result struct {
	Status  ResultStatus      `json:"status" yaml:"status"`
	Listing *DirectoryListing `json:"listing,omitempty" yaml:"listing,omitempty"`
	File    *FileContent      `json:"file,omitempty" yaml:"file,omitempty"`
	Written *FileWritten      `json:"written,omitempty" yaml:"written,omitempty"`
	Deleted *PathDeleted      `json:"deleted,omitempty" yaml:"deleted,omitempty"`
	Search  *SearchReport     `json:"search,omitempty" yaml:"search,omitempty"`
	Reply   *Completion       `json:"reply,omitempty" yaml:"reply,omitempty"`
	Failure *Failure          `json:"failure,omitempty" yaml:"failure,omitempty"`
}

// OK reports whether r is a success.
func (r Result) OK() bool { return r.Status == StatusSuccess }

// FailureKind returns the failure kind, or "" for a success.
func (r Result) FailureKind() FailureKind {
	if r.Failure == nil {
		return ""
	}
	return r.Failure.Kind
}

func SucceedListing(l *DirectoryListing) Result { return Result{Status: StatusSuccess, Listing: l} }
func SucceedFile(f *FileContent) Result         { return Result{Status: StatusSuccess, File: f} }
func SucceedWritten(w *FileWritten) Result      { return Result{Status: StatusSuccess, Written: w} }
func SucceedDeleted(d *PathDeleted) Result      { return Result{Status: StatusSuccess, Deleted: d} }
func SucceedSearch(s *SearchReport) Result      { return Result{Status: StatusSuccess, Search: s} }
func SucceedReply(c *Completion) Result         { return Result{Status: StatusSuccess, Reply: c} }

// Fail builds a failure Result.
func Fail(kind FailureKind, message string) Result {
	return Result{Status: StatusFailure, Failure: &Failure{Kind: kind, Message: message}}
}

// FailWithDetails builds a failure Result carrying diagnostic details.
func FailWithDetails(kind FailureKind, message string, details map[string]string) Result {
	r := Fail(kind, message)
	r.Failure.Details = details
	return r
}

// -------------------------------------------------------
// Payloads
// -------------------------------------------------------

// EntryType is the kind of a directory entry.
type EntryType string

const (
	EntryFile      EntryType = "file"
	EntryDirectory EntryType = "directory"
	EntryUnknown   EntryType = "unknown"
)

// ListEntry is one item of a directory listing. Size is only set for files.
// When the entry could not be inspected, Type is unknown and Error is set.
type ListEntry struct {
	Name        string    `json:"name" yaml:"name"`
	Type        EntryType `json:"type" yaml:"type"`
	Size        *int64    `json:"size,omitempty" yaml:"size,omitempty"`
	Modified    time.Time `json:"modified,omitempty" yaml:"modified,omitempty"`
	Permissions string    `json:"permissions,omitempty" yaml:"permissions,omitempty"`
	Error       string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// DirectoryListing is the payload of a successful list.
type DirectoryListing struct {
	Directory string      `json:"directory" yaml:"directory"`
	Items     []ListEntry `json:"items" yaml:"items"`
}

// FileContent is the payload of a successful read. Binary files carry a marker
// in Content instead of their bytes.
type FileContent struct {
	Path    string `json:"path" yaml:"path"`
	Content string `json:"content" yaml:"content"`
	Size    int64  `json:"size" yaml:"size"`
	Binary  bool   `json:"binary,omitempty" yaml:"binary,omitempty"`
}

// WriteStatus tells whether a write created a new file.
type WriteStatus string

const (
	WriteCreated     WriteStatus = "created"
	WriteOverwritten WriteStatus = "written"
)

// FileWritten is the payload of a successful create or write.
type FileWritten struct {
	Path         string      `json:"path" yaml:"path"`
	BytesWritten int         `json:"bytesWritten" yaml:"bytesWritten"`
	Status       WriteStatus `json:"status" yaml:"status"`
}

// PathDeleted is the payload of a successful delete.
type PathDeleted struct {
	Path string    `json:"path" yaml:"path"`
	Type EntryType `json:"type" yaml:"type"`
}

// OrganicResult is a regular web search hit.
type OrganicResult struct {
	Position int    `json:"position,omitempty" yaml:"position,omitempty"`
	Title    string `json:"title" yaml:"title"`
	Link     string `json:"link" yaml:"link"`
	Snippet  string `json:"snippet,omitempty" yaml:"snippet,omitempty"`
}

// NewsResult is a news search hit.
type NewsResult struct {
	Title   string `json:"title" yaml:"title"`
	Link    string `json:"link" yaml:"link"`
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`
	Source  string `json:"source,omitempty" yaml:"source,omitempty"`
	Date    string `json:"date,omitempty" yaml:"date,omitempty"`
}

// ImageResult is an image search hit.
type ImageResult struct {
	Title     string `json:"title" yaml:"title"`
	Link      string `json:"link,omitempty" yaml:"link,omitempty"`
	Original  string `json:"original,omitempty" yaml:"original,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	Source    string `json:"source,omitempty" yaml:"source,omitempty"`
}

// SearchReport is the payload of a successful web search. Source names the
// action or backend that answered; Fallback is set when the direct search API
// had to be used.
type SearchReport struct {
	Query      string          `json:"query" yaml:"query"`
	SearchType SearchType      `json:"searchType" yaml:"searchType"`
	Source     string          `json:"source" yaml:"source"`
	Fallback   bool            `json:"fallback,omitempty" yaml:"fallback,omitempty"`
	Organic    []OrganicResult `json:"organic,omitempty" yaml:"organic,omitempty"`
	News       []NewsResult    `json:"news,omitempty" yaml:"news,omitempty"`
	Images     []ImageResult   `json:"images,omitempty" yaml:"images,omitempty"`
}

// Empty reports whether the report has no hits at all.
func (s *SearchReport) Empty() bool {
	return len(s.Organic) == 0 && len(s.News) == 0 && len(s.Images) == 0
}

// ToolCallRecord records one tool call the language model made and what it
// produced.
type ToolCallRecord struct {
	Name   string         `json:"name" yaml:"name"`
	Args   map[string]any `json:"args,omitempty" yaml:"args,omitempty"`
	Output string         `json:"output" yaml:"output"`
	Known  bool           `json:"known" yaml:"known"`
}

// Completion is the payload of a natural-language request answered by the
// language model.
type Completion struct {
	Text      string           `json:"text" yaml:"text"`
	Model     string           `json:"model,omitempty" yaml:"model,omitempty"`
	ToolCalls []ToolCallRecord `json:"toolCalls,omitempty" yaml:"toolCalls,omitempty"`
}

// -------------------------------------------------------
// Tools
// -------------------------------------------------------

// ToolCategory groups tool descriptors.
type ToolCategory string

const (
	CategoryFileSystem ToolCategory = "file_system"
	CategoryWebSearch  ToolCategory = "web_search"
	CategoryUtility    ToolCategory = "utility"
)

// ToolParameter describes one parameter of a tool.
type ToolParameter struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
	Default     any    `json:"default,omitempty" yaml:"default,omitempty"`
}

// ToolDescriptor is static metadata about one tool clerk can run.
type ToolDescriptor struct {
	Name        string          `json:"name" yaml:"name"`
	Category    ToolCategory    `json:"category" yaml:"category"`
	Description string          `json:"description" yaml:"description"`
	Parameters  []ToolParameter `json:"parameters" yaml:"parameters"`
	Required    []string        `json:"required" yaml:"required"`
	Examples    []string        `json:"examples,omitempty" yaml:"examples,omitempty"`
}

// IsRequired reports whether the named parameter is required.
func (d *ToolDescriptor) IsRequired(name string) bool {
	for _, r := range d.Required {
		if r == name {
			return true
		}
	}
	return false
}

// -------------------------------------------------------
// Command (batch manifests)
// -------------------------------------------------------

// Command is one entry of a batch manifest. Spec holds either free text or a
// structured command.
type Command struct {
	TypeMeta `json:",inline" yaml:",inline"`
	Metadata ObjectMeta  `json:"metadata" yaml:"metadata"`
	Spec     CommandSpec `json:"spec" yaml:"spec"`
}

type CommandSpec struct {
	Text       string     `json:"text,omitempty" yaml:"text,omitempty"`
	Intent     Intent     `json:"intent,omitempty" yaml:"intent,omitempty"`
	Path       string     `json:"path,omitempty" yaml:"path,omitempty"`
	Content    *string    `json:"content,omitempty" yaml:"content,omitempty"`
	Query      string     `json:"query,omitempty" yaml:"query,omitempty"`
	SearchType SearchType `json:"searchType,omitempty" yaml:"searchType,omitempty"`
}

// -------------------------------------------------------
// API request/response bodies
// -------------------------------------------------------

// TextRequest carries free text for the resolve and run endpoints.
type TextRequest struct {
	Text string `json:"text"`
}

// RunResponse pairs a resolved command with its outcome.
type RunResponse struct {
	Command ParsedCommand `json:"command" yaml:"command"`
	Result  Result        `json:"result" yaml:"result"`
}

// SearchRequest is the body of the search endpoint.
type SearchRequest struct {
	Query string     `json:"query"`
	Type  SearchType `json:"type,omitempty"`
}

// AgentStatus summarizes which collaborators are configured.
type AgentStatus struct {
	Version        string          `json:"version" yaml:"version"`
	Workspace      string          `json:"workspace" yaml:"workspace"`
	LLMProvider    string          `json:"llmProvider" yaml:"llmProvider"`
	Model          string          `json:"model" yaml:"model"`
	ToolProvider   string          `json:"toolProvider" yaml:"toolProvider"`
	AvailableTools int             `json:"availableTools" yaml:"availableTools"`
	Keys           map[string]bool `json:"keys" yaml:"keys"`
}
