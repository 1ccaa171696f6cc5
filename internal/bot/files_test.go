package bot

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticResolver struct {
	url string
	err error
}

func (r staticResolver) GetFileDirectURL(fileID string) (string, error) {
	return r.url, r.err
}

func TestFileDownloader_Download(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/file/botSECRET/voice/file_1.oga", r.URL.Path)
		_, _ = w.Write([]byte("OggS-audio"))
	}))
	defer srv.Close()

	d := NewFileDownloader(staticResolver{url: srv.URL + "/file/botSECRET/voice/file_1.oga"}, srv.Client())

	var buf bytes.Buffer
	n, err := d.Download(context.Background(), "file-1", &buf)

	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	assert.Equal(t, "OggS-audio", buf.String())
}

func TestFileDownloader_ResolveError(t *testing.T) {
	d := NewFileDownloader(staticResolver{err: errors.New("file not found")}, nil)

	_, err := d.Download(context.Background(), "file-1", &bytes.Buffer{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestFileDownloader_HTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	d := NewFileDownloader(staticResolver{url: srv.URL + "/file/botSECRET/x"}, srv.Client())

	_, err := d.Download(context.Background(), "file-1", &bytes.Buffer{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 404")
	assert.NotContains(t, err.Error(), "SECRET")
}

func TestFileDownloader_ConnectionErrorHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	d := NewFileDownloader(staticResolver{url: addr + "/file/botSECRET/x"}, nil)

	_, err := d.Download(context.Background(), "file-1", &bytes.Buffer{})

	require.Error(t, err)
	assert.False(t, strings.Contains(err.Error(), "SECRET"), "error leaks bot token: %v", err)
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestFileDownloader_WriterErrorIsWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("audio"))
	}))
	defer srv.Close()

	sentinel := errors.New("too big")
	d := NewFileDownloader(staticResolver{url: srv.URL}, srv.Client())

	_, err := d.Download(context.Background(), "file-1", failingWriter{err: sentinel})

	assert.ErrorIs(t, err, sentinel)
}
