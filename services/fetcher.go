package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// StreamPrefix is the route under which library files are served to the sink
const StreamPrefix = "/api/files/stream/"

const maxAudioSize = 512 * 1024 * 1024 // 512 MB

// Fetcher loads the raw bytes behind a source ref
type Fetcher interface {
	Fetch(ctx context.Context, sourceRef string) ([]byte, error)
}

// Opener is implemented by fetchers that can hand out a seekable reader, so
// tag parsing reads only the parts of the file it needs
type Opener interface {
	Open(ctx context.Context, sourceRef string) (io.ReadSeekCloser, error)
}

// SourceRefFor builds the sink locator for a library-relative path
func SourceRefFor(relPath string) string {
	parts := strings.Split(relPath, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return StreamPrefix + strings.Join(parts, "/")
}

// RelPathFromSourceRef reverses SourceRefFor
func RelPathFromSourceRef(sourceRef string) (string, error) {
	if !strings.HasPrefix(sourceRef, StreamPrefix) {
		return "", fmt.Errorf("%w: %q is not a stream ref", ErrInvalidPath, sourceRef)
	}
	rel, err := url.PathUnescape(strings.TrimPrefix(sourceRef, StreamPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	return rel, nil
}

// FileFetcher reads source refs straight from the library directory
type FileFetcher struct {
	library *Library
}

// NewFileFetcher creates a fetcher rooted at the library location
func NewFileFetcher(library *Library) *FileFetcher {
	return &FileFetcher{library: library}
}

// Open returns the library file a source ref points to
func (f *FileFetcher) Open(ctx context.Context, sourceRef string) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel, err := RelPathFromSourceRef(sourceRef)
	if err != nil {
		return nil, err
	}
	path, err := resolveLibraryPath(f.library.Root(), rel)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", rel, err)
	}
	return file, nil
}

// Fetch reads the whole file a source ref points to. Files over the size
// limit are rejected rather than truncated.
func (f *FileFetcher) Fetch(ctx context.Context, sourceRef string) ([]byte, error) {
	file, err := f.Open(ctx, sourceRef)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAudioSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sourceRef, err)
	}
	if len(data) > maxAudioSize {
		return nil, fmt.Errorf("%s exceeds %d bytes", sourceRef, maxAudioSize)
	}
	return data, nil
}

// HTTPFetcher downloads source refs from a running stream server
type HTTPFetcher struct {
	logger  *zap.Logger
	client  *http.Client
	baseURL string
}

// NewHTTPFetcher creates an HTTP-based fetcher resolving refs against baseURL
func NewHTTPFetcher(logger *zap.Logger, baseURL string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		logger:  logger,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch downloads the audio bytes for a source ref
func (f *HTTPFetcher) Fetch(ctx context.Context, sourceRef string) ([]byte, error) {
	target := sourceRef
	if strings.HasPrefix(sourceRef, "/") {
		target = f.baseURL + sourceRef
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "a4blend/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch audio file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	f.logger.Debug("Audio fetched", zap.Int("bytes", len(data)), zap.String("url", target))
	return data, nil
}
