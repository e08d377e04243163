package runtime

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseContentType(t *testing.T) {
	tc := []struct {
		header string
		want   string
	}{
		{header: "application/json", want: "application/json"},
		{header: "text/plain; charset=utf-8", want: "text/plain"},
		{header: "", want: ""},
		{header: "not a type", want: ""},
	}
	for _, c := range tc {
		resp := &Response{Header: map[string]string{"Content-Type": c.header}}
		assert.Equal(t, c.want, resp.ContentType())
	}
}

func TestResponseContentLength(t *testing.T) {
	resp := &Response{
		Header:  map[string]string{"Content-Length": "1500"},
		Content: []byte("short"),
	}
	assert.Equal(t, 1500, resp.ContentLength())

	resp = &Response{Header: map[string]string{}, Content: []byte("short")}
	assert.Equal(t, 5, resp.ContentLength())
}

func TestResponseSummary(t *testing.T) {
	resp := &Response{
		ReturnCode: 200,
		Header:     map[string]string{},
		Content:    make([]byte, 1500),
		Duration:   42 * time.Millisecond,
	}
	s := resp.Summary()
	assert.Contains(t, s, "Response code: 200")
	assert.Contains(t, s, "Time: 42ms")
	assert.Contains(t, s, "1500 bytes")
	assert.Contains(t, s, "1.5 kB")
}

func TestSaveBodySkipsGenericTypes(t *testing.T) {
	for _, ct := range []string{"", "text/plain; charset=utf-8", "application/octet-stream"} {
		resp := &Response{
			ID:      "0123456789abcdef",
			Header:  map[string]string{"Content-Type": ct},
			Content: []byte("data"),
		}
		name, err := resp.SaveBody("")
		require.NoError(t, err)
		assert.Empty(t, name)
	}
}

func TestSaveBodyExplicitName(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out.json")
	resp := &Response{
		ID:      "0123456789abcdef",
		Header:  map[string]string{"Content-Type": "application/json"},
		Content: []byte(`{"k":"v"}`),
	}
	name, err := resp.SaveBody(target)
	require.NoError(t, err)
	assert.Equal(t, target, name)

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, `{"k":"v"}`, string(content))
}

func TestSaveBodyGeneratedName(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(wd)

	resp := &Response{
		ID:      "0123456789abcdef",
		Header:  map[string]string{"Content-Type": "application/json"},
		Content: []byte(`{}`),
	}
	name, err := resp.SaveBody("")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "response-"))
	assert.Contains(t, name, "01234567")

	_, err = os.Stat(name)
	require.NoError(t, err)
}
