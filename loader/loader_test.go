package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/erraggy/oasplit"
	"github.com/erraggy/oasplit/document"
	"github.com/erraggy/oasplit/oaserrors"
)

const specYAML = `openapi: 3.0.0
info:
  title: Users
paths:
  /api/v1/users:
    get:
      summary: list
`

const specJSON = `{"openapi": "3.0.0", "info": {"title": "Users"}, "paths": {"/api/v1/users": {"get": {"summary": "list"}}}}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		content    string
		wantFormat SourceFormat
	}{
		{"yaml extension", "api.yaml", specYAML, SourceFormatYAML},
		{"yml extension", "api.yml", specYAML, SourceFormatYAML},
		{"json extension", "api.json", specJSON, SourceFormatJSON},
		{"sniffed json", "api.spec", specJSON, SourceFormatJSON},
		{"sniffed yaml", "api.spec", specYAML, SourceFormatYAML},
		{"yaml document marker", "api", "---\n" + specYAML, SourceFormatYAML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			doc, err := New().LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFormat, doc.Format)
			assert.Equal(t, path, doc.Source)
			assert.Equal(t, int64(len(tt.content)), doc.Size)
			assert.Equal(t, "list", document.GetPath(doc.Root, "paths", "/api/v1/users", "get", "summary").Value)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := New().LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, oaserrors.ErrLoad)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadJSONIsBlockStyle(t *testing.T) {
	doc, err := New().LoadBytes([]byte(specJSON), "inline.json", SourceFormatUnknown)
	require.NoError(t, err)
	assert.Zero(t, document.Get(doc.Root, "info").Style)
}

func TestLoadJSONEscapedAstralCharacter(t *testing.T) {
	src := `{"openapi":"3.0.0","info":{"title":"smile \ud83d\ude00"},"paths":{"/a":{"get":{}}}}`
	doc, err := New().LoadBytes([]byte(src), "spec.json", SourceFormatUnknown)
	require.NoError(t, err)
	assert.Equal(t, SourceFormatJSON, doc.Format)
	assert.Equal(t, "smile \U0001F600", document.GetPath(doc.Root, "info", "title").Value)
}

func TestDecodeErrors(t *testing.T) {
	t.Run("both parsers fail", func(t *testing.T) {
		_, _, err := Decode([]byte("{unclosed: [\n"), "bad", SourceFormatUnknown)
		require.ErrorIs(t, err, oaserrors.ErrParse)

		var pe *oaserrors.ParseError
		require.ErrorAs(t, err, &pe)
		assert.Len(t, multierr.Errors(pe.Cause), 2, "both failures are reported")
		assert.Contains(t, err.Error(), "neither valid JSON nor valid YAML")
	})

	t.Run("strict json", func(t *testing.T) {
		_, _, err := Decode([]byte("{\n  \"a\": 1,\n  oops\n}"), "x.json", SourceFormatJSON)
		var pe *oaserrors.ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "json", pe.Format)
		assert.Equal(t, 3, pe.Line)
	})

	t.Run("yaml flow mapping falls back", func(t *testing.T) {
		root, format, err := Decode([]byte("{openapi: 3.0.0, paths: {}}"), "flow", SourceFormatUnknown)
		require.NoError(t, err)
		assert.Equal(t, SourceFormatYAML, format)
		assert.Equal(t, "3.0.0", document.Get(root, "openapi").Value)
	})

	t.Run("root not a mapping", func(t *testing.T) {
		_, _, err := Decode([]byte("- a\n- b\n"), "list.yaml", SourceFormatYAML)
		require.ErrorIs(t, err, oaserrors.ErrParse)
		assert.Contains(t, err.Error(), "root is a sequence")

		_, _, err = Decode([]byte(`[1, 2]`), "list", SourceFormatUnknown)
		assert.ErrorIs(t, err, oaserrors.ErrParse)
	})

	t.Run("empty", func(t *testing.T) {
		_, _, err := Decode([]byte("   \n"), "empty", SourceFormatUnknown)
		require.ErrorIs(t, err, oaserrors.ErrParse)
		assert.ErrorIs(t, err, document.ErrEmpty)
	})
}

func TestLoadURL(t *testing.T) {
	var gotUA atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/spec.yaml":
			_, _ = w.Write([]byte(specYAML))
		case "/by-content-type":
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			_, _ = w.Write([]byte(specJSON))
		case "/yaml-type":
			w.Header().Set("Content-Type", "application/x-yaml")
			_, _ = w.Write([]byte(specYAML))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := New()
	ctx := context.Background()

	doc, err := l.LoadURL(ctx, srv.URL+"/spec.yaml")
	require.NoError(t, err)
	assert.Equal(t, SourceFormatYAML, doc.Format)
	assert.Equal(t, oasplit.UserAgent(), gotUA.Load())

	doc, err = l.Load(ctx, srv.URL+"/by-content-type")
	require.NoError(t, err)
	assert.Equal(t, SourceFormatJSON, doc.Format)

	doc, err = l.Load(ctx, srv.URL+"/yaml-type")
	require.NoError(t, err)
	assert.Equal(t, SourceFormatYAML, doc.Format)

	_, err = l.LoadURL(ctx, srv.URL+"/missing")
	var le *oaserrors.LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, http.StatusNotFound, le.StatusCode)

	_, err = New(WithUserAgent("custom/1.0")).LoadURL(ctx, srv.URL+"/spec.yaml")
	require.NoError(t, err)
	assert.Equal(t, "custom/1.0", gotUA.Load())
}

func TestLoadURLTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := New(WithTimeout(20*time.Millisecond)).LoadURL(context.Background(), srv.URL+"/slow.yaml")
	require.ErrorIs(t, err, oaserrors.ErrLoad)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMaxSize(t *testing.T) {
	l := New(WithMaxSize(16))
	_, err := l.LoadReader(strings.NewReader(specYAML), "big.yaml")
	require.ErrorIs(t, err, oaserrors.ErrLoad)
	assert.Contains(t, err.Error(), "16 B limit")

	_, err = l.LoadBytes([]byte(specYAML), "big.yaml", SourceFormatYAML)
	assert.ErrorIs(t, err, oaserrors.ErrLoad)
}

func TestDetectFormatFromURL(t *testing.T) {
	tests := []struct {
		url, contentType string
		want             SourceFormat
	}{
		{"https://x/api.json", "text/plain", SourceFormatJSON},
		{"https://x/api.YAML", "", SourceFormatYAML},
		{"https://x/api", "application/vnd.oai.openapi+json", SourceFormatJSON},
		{"https://x/api", "application/vnd.oai.openapi+yaml", SourceFormatYAML},
		{"https://x/api", "text/yaml", SourceFormatYAML},
		{"https://x/api", "text/html", SourceFormatUnknown},
		{"https://x/api", "", SourceFormatUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, detectFormatFromURL(tt.url, tt.contentType), tt.url+" "+tt.contentType)
	}
}

func TestParseSourceFormat(t *testing.T) {
	f, err := ParseSourceFormat("YML")
	require.NoError(t, err)
	assert.Equal(t, SourceFormatYAML, f)

	f, err = ParseSourceFormat("")
	require.NoError(t, err)
	assert.Equal(t, SourceFormatUnknown, f)

	_, err = ParseSourceFormat("xml")
	assert.ErrorIs(t, err, oaserrors.ErrConfig)
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{-1, "-1 B"},
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1 << 20, "1.0 MiB"},
		{5 << 30, "5.0 GiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.size))
	}
}
