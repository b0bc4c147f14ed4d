package actions

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klubi/clerk/internal/fsops"
	"github.com/klubi/clerk/internal/serpapi"
)

func TestParse(t *testing.T) {
	assert.Equal(t, ListFiles, Parse("FILETOOL_LIST_FILES"))
	assert.Equal(t, NewsSearch, Parse("serpapi_news_search"))
	assert.Equal(t, Unknown, Parse("FILETOOL_DELETE_EVERYTHING"))
	assert.Equal(t, Unknown, Parse(""))
}

func TestCatalogue(t *testing.T) {
	decls := Catalogue()
	require.Len(t, decls, 9)
	assert.Equal(t, ListFiles, decls[0].Action)

	d, ok := Lookup(WriteFile)
	require.True(t, ok)
	assert.Equal(t, "file_path", d.Params[0].Name)
	assert.True(t, d.Params[0].Required)

	_, ok = Lookup(Unknown)
	assert.False(t, ok)

	assert.True(t, ImageSearch.IsSearch())
	assert.False(t, OpenFile.IsSearch())
}

func TestLocal_FileActions(t *testing.T) {
	root := t.TempDir()
	l := NewLocal(fsops.New(root), nil)
	ctx := context.Background()

	assert.Equal(t, []Action{ListFiles, OpenFile, CreateFile, WriteFile, FindFile}, l.Actions())
	assert.False(t, Supports(l, Search))
	assert.Nil(t, l.SearchClient())

	_, err := l.Execute(ctx, WriteFile, map[string]any{"file_path": "docs/a.md", "text": "# hi"})
	require.NoError(t, err)

	out, err := l.Execute(ctx, OpenFile, map[string]any{"file_path": "docs/a.md"})
	require.NoError(t, err)
	assert.Equal(t, "# hi", out["content"])

	out, err = l.Execute(ctx, ListFiles, map[string]any{"path": "docs"})
	require.NoError(t, err)
	items, ok := out["items"].([]any)
	require.True(t, ok)
	assert.Len(t, items, 1)

	out, err = l.Execute(ctx, FindFile, map[string]any{"pattern": "**/*.md"})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("docs", "a.md")}, out["matches"])

	_, err = l.Execute(ctx, CreateFile, map[string]any{"path": "sub", "is_directory": "true"})
	require.NoError(t, err)
	info, err := os.Stat(filepath.Join(root, "sub"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLocal_Errors(t *testing.T) {
	l := NewLocal(fsops.New(t.TempDir()), nil)
	ctx := context.Background()

	_, err := l.Execute(ctx, OpenFile, map[string]any{})
	assert.ErrorIs(t, err, ErrMissingParam)

	_, err = l.Execute(ctx, OpenFile, map[string]any{"file_path": "nope.txt"})
	var actionErr *Error
	require.True(t, errors.As(err, &actionErr))
	assert.Equal(t, OpenFile, actionErr.Action)
	assert.ErrorIs(t, err, fsops.ErrNotFound)

	_, err = l.Execute(ctx, Search, map[string]any{"query": "go"})
	assert.ErrorIs(t, err, serpapi.ErrNoAPIKey)

	_, err = l.Execute(ctx, Unknown, nil)
	assert.Error(t, err)
}

func TestLocal_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "isch", r.URL.Query().Get("tbm"))
		_, _ = w.Write([]byte(`{"images_results": []}`))
	}))
	defer srv.Close()

	client := serpapi.New("key", serpapi.WithBaseURL(srv.URL))
	l := NewLocal(fsops.New(t.TempDir()), client)
	assert.True(t, Supports(l, ImageSearch))
	assert.False(t, Supports(l, GoogleSearch))
	assert.Same(t, client, l.SearchClient())

	out, err := l.Execute(context.Background(), ImageSearch, map[string]any{"query": "gophers", "num": 2})
	require.NoError(t, err)
	assert.Contains(t, out, "images_results")
}
