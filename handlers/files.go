package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"a4blend/services"
	"a4blend/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FileHandler serves the library listing and the audio streams the sink plays
type FileHandler struct {
	logger      *zap.Logger
	fileService services.FileService
	library     *services.Library
}

// NewFileHandler creates a new file handler
func NewFileHandler(logger *zap.Logger, fs services.FileService, library *services.Library) *FileHandler {
	return &FileHandler{
		logger:      logger,
		fileService: fs,
		library:     library,
	}
}

// ListFiles returns every audio file in the library with its tag metadata
func (h *FileHandler) ListFiles(c *gin.Context) {
	root := h.library.Root()
	audioFiles, err := h.fileService.ScanAudioFiles(root)
	if err != nil {
		h.logger.Error("Error scanning audio files", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to scan files",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, types.FileListing{
		Library: root,
		Files:   audioFiles,
		Count:   len(audioFiles),
	})
}

// StreamFile streams an audio file with support for range requests
func (h *FileHandler) StreamFile(c *gin.Context) {
	requestedPath := strings.TrimPrefix(c.Param("filepath"), "/")

	if err := h.fileService.ValidateFilePath(requestedPath); err != nil {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "path security violation",
			"details": err.Error(),
		})
		return
	}

	ext := strings.ToLower(filepath.Ext(requestedPath))
	if ext != ".flac" && ext != ".mp3" {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "file extension not allowed",
			"details": "only .flac and .mp3 files can be streamed",
		})
		return
	}

	fullPath, err := h.fileService.ResolvePath(h.library.Root(), requestedPath)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrInvalidPath) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{
			"error":   "invalid file path",
			"details": err.Error(),
		})
		return
	}

	fileInfo, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "file not found",
				"path":  requestedPath,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "file access error",
			"details": err.Error(),
		})
		return
	}

	if fileInfo.IsDir() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "path is a directory, not a file",
		})
		return
	}

	file, err := os.Open(fullPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to open file",
			"details": err.Error(),
		})
		return
	}
	defer file.Close()

	c.Header("Content-Type", h.fileService.GetContentType(requestedPath))
	c.Header("Accept-Ranges", "bytes")
	c.Header("Cache-Control", "public, max-age=3600")

	if rangeHeader := c.GetHeader("Range"); rangeHeader != "" {
		h.handleRangeRequest(c, file, fileInfo.Size(), rangeHeader, requestedPath)
		return
	}

	c.Header("Content-Length", strconv.FormatInt(fileInfo.Size(), 10))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		h.logger.Debug("Streaming interrupted", zap.String("path", requestedPath), zap.Error(err))
	}
}

// byteRange is an inclusive byte interval
type byteRange struct {
	start, end int64
}

// parseRange parses a single "bytes=" range against size. Suffix ranges
// ("bytes=-500") address the last bytes of the file.
func parseRange(header string, size int64) (byteRange, bool) {
	rng, ok := strings.CutPrefix(header, "bytes=")
	if !ok || strings.Contains(rng, ",") {
		return byteRange{}, false
	}
	first, last, ok := strings.Cut(rng, "-")
	if !ok || size <= 0 {
		return byteRange{}, false
	}

	if first == "" {
		n, err := strconv.ParseInt(last, 10, 64)
		if err != nil || n <= 0 {
			return byteRange{}, false
		}
		if n > size {
			n = size
		}
		return byteRange{start: size - n, end: size - 1}, true
	}

	start, err := strconv.ParseInt(first, 10, 64)
	if err != nil || start < 0 || start >= size {
		return byteRange{}, false
	}
	end := size - 1
	if last != "" {
		end, err = strconv.ParseInt(last, 10, 64)
		if err != nil || end < start {
			return byteRange{}, false
		}
		if end >= size {
			end = size - 1
		}
	}
	return byteRange{start: start, end: end}, true
}

// handleRangeRequest answers a range request so the sink can seek
func (h *FileHandler) handleRangeRequest(c *gin.Context, file *os.File, fileSize int64, rangeHeader string, filePath string) {
	r, ok := parseRange(rangeHeader, fileSize)
	if !ok {
		c.Header("Content-Range", fmt.Sprintf("bytes */%d", fileSize))
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	if _, err := file.Seek(r.start, io.SeekStart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to seek file",
		})
		return
	}

	contentLength := r.end - r.start + 1
	c.Header("Content-Length", strconv.FormatInt(contentLength, 10))
	c.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", r.start, r.end, fileSize))
	c.Status(http.StatusPartialContent)

	if _, err := io.CopyN(c.Writer, file, contentLength); err != nil {
		h.logger.Debug("Streaming range interrupted",
			zap.String("path", filePath),
			zap.Int64("start", r.start),
			zap.Int64("end", r.end),
			zap.Error(err))
	}
}
