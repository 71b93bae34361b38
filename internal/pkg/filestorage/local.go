package filestorage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/logger"
)

// MaxUploadSize is the largest lesson material accepted.
const MaxUploadSize = 25 << 20

// URLPrefix is the route under which stored files are served.
const URLPrefix = "/uploads"

// allowedExtensions lists the lesson material formats we accept.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".ppt":  true,
	".pptx": true,
	".txt":  true,
	".mp3":  true,
	".mp4":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// ErrUnsupportedFile is returned for uploads with a disallowed extension or size.
var ErrUnsupportedFile = errors.New("unsupported file")

// FileStorage stores uploaded files and hands back their public URL.
type FileStorage interface {
	SaveFileWithPath(fileHeader *multipart.FileHeader, subPath string) (string, error)
	DeleteFile(fileURL string) error
}

// LocalStorage handles saving files to the local filesystem.
type LocalStorage struct {
	basePath string
	baseURL  string
}

// NewLocalStorage creates the storage root if needed. baseURL, when set, is
// prepended to returned URLs; otherwise URLs are relative to URLPrefix.
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

// BasePath is the directory served under URLPrefix.
func (ls *LocalStorage) BasePath() string {
	return ls.basePath
}

// SaveFileWithPath validates and saves a file under subPath with a random name.
func (ls *LocalStorage) SaveFileWithPath(fileHeader *multipart.FileHeader, subPath string) (string, error) {
	if fileHeader == nil {
		return "", apperrors.NewBadRequestError("file is required")
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: extension %q is not allowed", ErrUnsupportedFile, ext)
	}
	if fileHeader.Size > MaxUploadSize {
		return "", fmt.Errorf("%w: file exceeds %d bytes", ErrUnsupportedFile, MaxUploadSize)
	}

	subPath = cleanSubPath(subPath)

	file, err := fileHeader.Open()
	if err != nil {
		logger.Error().Err(err).Str("filename", fileHeader.Filename).Msg("Failed to open uploaded file")
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	dir := filepath.Join(ls.basePath, filepath.FromSlash(subPath))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error().Err(err).Str("path", dir).Msg("Failed to create subdirectory")
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}

	name := uuid.New().String() + ext
	dstPath := filepath.Join(dir, name)

	dst, err := os.Create(dstPath)
	if err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create destination file")
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, io.LimitReader(file, MaxUploadSize+1)); err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to copy uploaded file content")
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to save file content: %w", err)
	}

	rel := path.Join(subPath, name)
	url := path.Join(URLPrefix, rel)
	if ls.baseURL != "" {
		url = ls.baseURL + url
	}

	logger.Info().Str("filename", fileHeader.Filename).Str("saved_as", rel).Msg("File saved successfully")
	return url, nil
}

// DeleteFile removes a previously saved file. Missing files are not an error.
func (ls *LocalStorage) DeleteFile(fileURL string) error {
	physicalPath, ok := ls.physicalPath(fileURL)
	if !ok {
		return fmt.Errorf("invalid file path: %s", fileURL)
	}

	if err := os.Remove(physicalPath); err != nil {
		if os.IsNotExist(err) {
			logger.Warn().Str("path", physicalPath).Msg("File to delete does not exist")
			return nil
		}
		logger.Error().Err(err).Str("path", physicalPath).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}

	logger.Info().Str("path", physicalPath).Msg("File deleted successfully")
	return nil
}

// physicalPath maps a URL returned by SaveFileWithPath back to disk, refusing
// anything that escapes basePath.
func (ls *LocalStorage) physicalPath(fileURL string) (string, bool) {
	rel := strings.TrimPrefix(fileURL, ls.baseURL)
	idx := strings.Index(rel, URLPrefix+"/")
	if idx < 0 {
		return "", false
	}
	rel = cleanSubPath(rel[idx+len(URLPrefix)+1:])
	if rel == "" {
		return "", false
	}
	return filepath.Join(ls.basePath, filepath.FromSlash(rel)), true
}

func cleanSubPath(p string) string {
	p = path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimPrefix(p, "/")
}
