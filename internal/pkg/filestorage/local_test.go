package filestorage

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	ls, err := NewLocalStorage(dir, "")
	require.NoError(t, err)

	url, err := ls.SaveFileWithPath(fileHeader(t, "notes.PDF", []byte("%PDF-1.4")), "lessons/7")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/lessons/7/"))
	assert.True(t, strings.HasSuffix(url, ".pdf"))

	onDisk := filepath.Join(dir, "lessons", "7", filepath.Base(url))
	data, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	require.NoError(t, ls.DeleteFile(url))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))

	// deleting again is fine
	assert.NoError(t, ls.DeleteFile(url))
}

func TestSaveRejectsExtension(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)

	_, err = ls.SaveFileWithPath(fileHeader(t, "run.sh", []byte("echo")), "")
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestSubPathCannotEscape(t *testing.T) {
	dir := t.TempDir()
	ls, err := NewLocalStorage(dir, "https://lms.example.com/")
	require.NoError(t, err)

	url, err := ls.SaveFileWithPath(fileHeader(t, "a.txt", []byte("x")), "../../etc")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://lms.example.com/uploads/etc/"))

	p, ok := ls.physicalPath("https://lms.example.com/uploads/../../secret.txt")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "secret.txt"), p)

	_, ok = ls.physicalPath("/elsewhere/file.txt")
	assert.False(t, ok)
}
