package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"a4blend/types"

	"github.com/dhowden/tag"
	"go.uber.org/zap"
)

// ErrInvalidPath is returned for paths that escape the library root
var ErrInvalidPath = errors.New("invalid path")

var trackPrefix = regexp.MustCompile(`^(\d+)[\.\-\s]+(.+)`)

// FileService interface defines methods for library file access
type FileService interface {
	ScanAudioFiles(rootPath string) ([]types.AudioFile, error)
	ExtractAudioMetadata(filePath string) *types.AudioMetadata
	ValidateFilePath(path string) error
	ResolvePath(rootPath, relPath string) (string, error)
	GetContentType(filePath string) string
}

// fileService implements the FileService interface
type fileService struct {
	logger *zap.Logger
}

// NewFileService creates a new file service
func NewFileService(logger *zap.Logger) FileService {
	return &fileService{logger: logger}
}

// ScanAudioFiles lists the library with tag metadata, in discovery order
func (s *fileService) ScanAudioFiles(rootPath string) ([]types.AudioFile, error) {
	paths, err := walkAudioFiles(context.Background(), rootPath, s.logger)
	if err != nil {
		return nil, err
	}

	files := make([]types.AudioFile, 0, len(paths))
	for _, rel := range paths {
		full := filepath.Join(rootPath, filepath.FromSlash(rel))
		info, err := os.Stat(full)
		if err != nil {
			s.logger.Warn("Could not stat audio file", zap.String("path", rel), zap.Error(err))
			continue
		}

		files = append(files, types.AudioFile{
			Filename: info.Name(),
			Path:     rel,
			Size:     info.Size(),
			Format:   audioFormat(rel),
			Metadata: s.ExtractAudioMetadata(full),
		})
	}
	return files, nil
}

// walkAudioFiles returns slash-separated paths relative to rootPath for every
// .flac/.mp3 under it, in lexical walk order. When both formats exist for the
// same base path only the FLAC survives, at the position of the first one seen.
func walkAudioFiles(ctx context.Context, rootPath string, logger *zap.Logger) ([]string, error) {
	var all []string

	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == rootPath {
				return err
			}
			logger.Warn("Error accessing path", zap.String("path", path), zap.Error(err))
			return nil // Continue walking, don't fail entire scan
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !isAudioFile(path) {
			return nil
		}

		rel, err := filepath.Rel(rootPath, path)
		if err != nil {
			rel = path
		}
		all = append(all, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", rootPath, err)
	}

	return applyFlacPrioritization(all), nil
}

// applyFlacPrioritization prefers FLAC over MP3 for the same track while keeping order
func applyFlacPrioritization(paths []string) []string {
	slot := make(map[string]int, len(paths))
	result := make([]string, 0, len(paths))

	for _, p := range paths {
		base := strings.TrimSuffix(p, filepath.Ext(p))
		i, seen := slot[base]
		if !seen {
			slot[base] = len(result)
			result = append(result, p)
			continue
		}
		if audioFormat(p) == "flac" {
			result[i] = p
		}
	}
	return result
}

func isAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".flac" || ext == ".mp3"
}

func audioFormat(path string) string {
	if strings.ToLower(filepath.Ext(path)) == ".mp3" {
		return "mp3"
	}
	return "flac"
}

// GetContentType returns the appropriate MIME type for an audio file
func (s *fileService) GetContentType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".flac":
		return "audio/flac"
	case ".mp3":
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}

// ExtractAudioMetadata extracts tag metadata, falling back to the path layout
func (s *fileService) ExtractAudioMetadata(filePath string) *types.AudioMetadata {
	file, err := os.Open(filePath)
	if err != nil {
		s.logger.Warn("Could not open audio file", zap.String("path", filePath), zap.Error(err))
		return extractMetadataFromPath(filePath)
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil {
		s.logger.Debug("Could not parse audio metadata", zap.String("path", filePath), zap.Error(err))
		return extractMetadataFromPath(filePath)
	}

	metadata := &types.AudioMetadata{
		Title:  meta.Title(),
		Artist: meta.Artist(),
		Album:  meta.Album(),
	}
	metadata.TrackNumber, _ = meta.Track()
	if pic := meta.Picture(); pic != nil && len(pic.Data) > 0 {
		metadata.HasCover = true
	}

	if metadata.Title == "" || metadata.Artist == "" || metadata.Album == "" {
		fallback := extractMetadataFromPath(filePath)
		if metadata.Title == "" {
			metadata.Title = fallback.Title
		}
		if metadata.Artist == "" {
			metadata.Artist = fallback.Artist
		}
		if metadata.Album == "" {
			metadata.Album = fallback.Album
		}
	}

	return metadata
}

// extractMetadataFromPath parses Artist/Album/NN - Title.ext
func extractMetadataFromPath(filePath string) *types.AudioMetadata {
	metadata := &types.AudioMetadata{}

	parts := strings.Split(filepath.ToSlash(filePath), "/")
	if len(parts) >= 3 {
		metadata.Artist = parts[len(parts)-3]
	}
	if len(parts) >= 2 {
		metadata.Album = parts[len(parts)-2]
	}

	title := TitleFromPath(filePath)
	if matches := trackPrefix.FindStringSubmatch(title); len(matches) > 2 {
		title = matches[2]
		if trackNum, err := strconv.Atoi(matches[1]); err == nil {
			metadata.TrackNumber = trackNum
		}
	}
	metadata.Title = title

	return metadata
}

// TitleFromPath is the catalog title: the base name without its extension
func TitleFromPath(path string) string {
	name := filepath.Base(filepath.FromSlash(path))
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// ValidateFilePath checks for path traversal attempts and other security issues
func (s *fileService) ValidateFilePath(path string) error {
	return validateRelPath(path)
}

func validateRelPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: empty path not allowed", ErrInvalidPath)
	}
	if strings.HasPrefix(path, "/") || filepath.IsAbs(path) {
		return fmt.Errorf("%w: absolute paths not allowed", ErrInvalidPath)
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return fmt.Errorf("%w: path traversal not allowed", ErrInvalidPath)
		}
	}
	return nil
}

// ResolvePath joins relPath onto rootPath and makes sure it stays inside
func (s *fileService) ResolvePath(rootPath, relPath string) (string, error) {
	return resolveLibraryPath(rootPath, relPath)
}

func resolveLibraryPath(rootPath, relPath string) (string, error) {
	if err := validateRelPath(relPath); err != nil {
		return "", err
	}

	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return "", fmt.Errorf("resolve library root: %w", err)
	}
	absPath, err := filepath.Abs(filepath.Join(rootPath, filepath.FromSlash(relPath)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if absPath != absRoot && !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path traversal not allowed", ErrInvalidPath)
	}
	return absPath, nil
}
