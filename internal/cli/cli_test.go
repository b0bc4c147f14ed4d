package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klubi/clerk/pkg/apis/v1alpha1"
)

// workspace writes a config pointing at a fresh workspace with no
// collaborators and clears credential variables from the environment.
func workspace(t *testing.T) (root, cfgPath string) {
	t.Helper()
	for _, k := range []string{
		"COMPOSIO_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY", "SERPAPI_KEY", "SERPAPI_API_KEY",
		"CLERK_WORKSPACE", "CLERK_LLM_PROVIDER", "CLERK_MODEL", "LOG_LEVEL", "LOG_FILE",
		"MAX_TOKENS", "TEMPERATURE", "MAX_SEARCH_RESULTS",
	} {
		t.Setenv(k, "")
	}

	root = t.TempDir()
	cfgPath = filepath.Join(t.TempDir(), "config.yaml")
	cfg := "workspace:\n  root: " + root + "\nllm:\n  provider: none\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))
	return root, cfgPath
}

func execute(t *testing.T, cfgPath string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", cfgPath, "--no-color"}, args...))
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestFileCommands(t *testing.T) {
	root, cfg := workspace(t)

	out, _, err := execute(t, cfg, "create", "notes.txt", "hello", "world")
	require.NoError(t, err)
	assert.Contains(t, out, "Created "+filepath.Join(root, "notes.txt"))

	out, _, err = execute(t, cfg, "cat", "notes.txt", "--syntax=false")
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", out)

	out, _, err = execute(t, cfg, "cat", "notes.txt", "-n")
	require.NoError(t, err)
	assert.Contains(t, out, "1 │ hello world")

	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".hidden"), nil, 0o600))

	out, _, err = execute(t, cfg, "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "sub/")
	assert.Contains(t, out, "notes.txt")
	assert.NotContains(t, out, ".hidden")
	assert.Less(t, bytes.Index([]byte(out), []byte("sub/")), bytes.Index([]byte(out), []byte("notes.txt")))

	out, _, err = execute(t, cfg, "ls", "-la")
	require.NoError(t, err)
	assert.Contains(t, out, ".hidden")
	assert.Contains(t, out, "SIZE")

	out, _, err = execute(t, cfg, "rm", "notes.txt", "--confirm=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted file "+filepath.Join(root, "notes.txt"))
	assert.NoFileExists(t, filepath.Join(root, "notes.txt"))
}

func TestCreate_ContentFlag(t *testing.T) {
	root, cfg := workspace(t)

	_, _, err := execute(t, cfg, "create", "docs/todo.md", "-c", "- write tests")
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(root, "docs", "todo.md"))
	require.NoError(t, err)
	assert.Equal(t, "- write tests", string(data))

	_, _, err = execute(t, cfg, "create", "x.txt", "a", "-c", "b")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCommandFailed)
}

func TestFailuresExitWithCommandFailed(t *testing.T) {
	root, cfg := workspace(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "full", "inner"), 0o755))

	_, stderr, err := execute(t, cfg, "cat", "missing.txt")
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.Contains(t, stderr, "NotFound")

	_, stderr, err = execute(t, cfg, "rm", "full", "--confirm=false")
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.Contains(t, stderr, "NotEmpty")
	assert.DirExists(t, filepath.Join(root, "full", "inner"))

	_, stderr, err = execute(t, cfg, "create", "full", "again")
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.Contains(t, stderr, "AlreadyExists")
}

func TestRun(t *testing.T) {
	root, cfg := workspace(t)

	_, _, err := execute(t, cfg, "run", "create", "a", "file", "called", "notes.txt", "with", "hello", "world")
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(root, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	_, stderr, err := execute(t, cfg, "run", "delete", "file")
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.Contains(t, stderr, "MissingParameter")

	_, stderr, err = execute(t, cfg, "run", "tell", "me", "a", "joke")
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.Contains(t, stderr, "CollaboratorUnavailable")
}

func TestRun_VerboseShowsIntent(t *testing.T) {
	_, cfg := workspace(t)

	_, stderr, err := execute(t, cfg, "-v", "run", "list", "files")
	require.NoError(t, err)
	assert.Contains(t, stderr, "intent=ListFiles")
}

func TestRun_JSONOutput(t *testing.T) {
	_, cfg := workspace(t)

	out, _, err := execute(t, cfg, "-o", "json", "run", "read", "file", "nope.txt")
	assert.ErrorIs(t, err, ErrCommandFailed)

	var resp v1alpha1.RunResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, v1alpha1.IntentReadFile, resp.Command.Intent)
	assert.Equal(t, v1alpha1.FailureNotFound, resp.Result.FailureKind())
}

func TestLs_YAMLOutput(t *testing.T) {
	root, cfg := workspace(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o600))

	out, _, err := execute(t, cfg, "-o", "yaml", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "status: success")
	assert.Contains(t, out, "name: a.txt")
}

func TestSearch_NoCollaborators(t *testing.T) {
	_, cfg := workspace(t)

	_, stderr, err := execute(t, cfg, "search", "golang", "generics")
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.Contains(t, stderr, "CollaboratorUnavailable")
	assert.Contains(t, stderr, "attemptedActions: none")

	_, _, err = execute(t, cfg, "search", "x", "--type", "videos")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCommandFailed)

	_, _, err = execute(t, cfg, "news", "x", "--max", "0")
	assert.Error(t, err)
}

func TestLimitReport(t *testing.T) {
	r := &v1alpha1.SearchReport{
		Organic: make([]v1alpha1.OrganicResult, 5),
		News:    make([]v1alpha1.NewsResult, 1),
	}
	limitReport(r, 2)
	assert.Len(t, r.Organic, 2)
	assert.Len(t, r.News, 1)
}

func TestTools(t *testing.T) {
	_, cfg := workspace(t)

	out, _, err := execute(t, cfg, "tools", "file_system")
	require.NoError(t, err)
	assert.Contains(t, out, "read_file")
	assert.NotContains(t, out, "web_search ")

	out, _, err = execute(t, cfg, "tools", "-s", "directory")
	require.NoError(t, err)
	assert.Contains(t, out, "list_directory")

	_, _, err = execute(t, cfg, "tools", "bogus")
	assert.Error(t, err)

	out, _, err = execute(t, cfg, "-o", "json", "tools")
	require.NoError(t, err)
	var tools []v1alpha1.ToolDescriptor
	require.NoError(t, json.Unmarshal([]byte(out), &tools))
	assert.NotEmpty(t, tools)
}

func TestHelpTool(t *testing.T) {
	_, cfg := workspace(t)

	out, _, err := execute(t, cfg, "help-tool", "read_file")
	require.NoError(t, err)
	assert.Contains(t, out, "Tool: read_file")
	assert.Contains(t, out, "Parameters:")

	_, stderr, err := execute(t, cfg, "help-tool", "read_fil")
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.Contains(t, stderr, "Did you mean: read_file")
}

func TestStatusAndVersion(t *testing.T) {
	root, cfg := workspace(t)

	out, _, err := execute(t, cfg, "-o", "json", "status")
	require.NoError(t, err)
	var st v1alpha1.AgentStatus
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, "none", st.LLMProvider)
	assert.Equal(t, "local", st.ToolProvider)
	assert.Equal(t, root, st.Workspace)
	assert.False(t, st.Keys["GEMINI_API_KEY"])

	out, _, err = execute(t, cfg, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "✗ COMPOSIO_API_KEY")

	out, _, err = execute(t, cfg, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "clerk ")
}

func TestApply(t *testing.T) {
	root, cfg := workspace(t)
	manifest := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte(`apiVersion: clerk.dev/v1alpha1
kind: Command
metadata:
  name: make-notes
spec:
  intent: CreateFile
  path: notes.txt
  content: hello
---
apiVersion: clerk.dev/v1alpha1
kind: Command
metadata:
  name: make-todo
spec:
  text: create a file called todo.txt with buy milk
---
apiVersion: clerk.dev/v1alpha1
kind: Command
metadata:
  name: read-missing
spec:
  intent: ReadFile
  path: missing.txt
`), 0o600))

	out, _, err := execute(t, cfg, "apply", "-f", manifest)
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.Contains(t, out, "command/make-notes")
	assert.Contains(t, out, "3 commands, 1 failed")
	assert.FileExists(t, filepath.Join(root, "notes.txt"))

	data, err := os.ReadFile(filepath.Join(root, "todo.txt"))
	require.NoError(t, err)
	assert.Equal(t, "buy milk", string(data))
}

func TestApply_ParallelJSON(t *testing.T) {
	_, cfg := workspace(t)
	manifest := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte(`apiVersion: clerk.dev/v1alpha1
kind: Command
metadata:
  name: one
spec:
  intent: CreateFile
  path: same.txt
  content: "1"
---
apiVersion: clerk.dev/v1alpha1
kind: Command
metadata:
  name: two
spec:
  intent: CreateFile
  path: same.txt
  content: "2"
`), 0o600))

	out, _, err := execute(t, cfg, "-o", "json", "apply", "-f", manifest, "--parallel")
	assert.ErrorIs(t, err, ErrCommandFailed)

	var outcomes []applyOutcome
	require.NoError(t, json.Unmarshal([]byte(out), &outcomes))
	require.Len(t, outcomes, 2)
	assert.Equal(t, "one", outcomes[0].Name)
	assert.Equal(t, "two", outcomes[1].Name)
	assert.NotEqual(t, outcomes[0].Result.OK(), outcomes[1].Result.OK())
}

func TestApply_InvalidManifest(t *testing.T) {
	_, cfg := workspace(t)
	manifest := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte("apiVersion: clerk.dev/v1alpha1\nkind: Command\nmetadata:\n  name: x\nspec: {}\n"), 0o600))

	_, _, err := execute(t, cfg, "apply", "-f", manifest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text or intent")
}

func TestSetup_WritesTemplate(t *testing.T) {
	workspace(t)
	path := filepath.Join(t.TempDir(), "clerk", "config.yaml")

	out, _, err := execute(t, path, "setup", "--write")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)
	assert.Contains(t, out, "✗ SERPAPI_KEY")
	assert.FileExists(t, path)

	_, _, err = execute(t, path, "setup", "--write")
	assert.Error(t, err)

	_, _, err = execute(t, path, "setup", "--write", "--force")
	assert.NoError(t, err)
}

func TestDescribeCommand(t *testing.T) {
	got := describeCommand(v1alpha1.ParsedCommand{
		Intent:     v1alpha1.IntentWebSearch,
		Query:      v1alpha1.StringPtr("go"),
		SearchType: v1alpha1.SearchNews,
	})
	assert.Equal(t, `intent=WebSearch query="go" type=news`, got)
}
