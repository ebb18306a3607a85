package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"a4blend/metrics"

	"github.com/dhowden/tag"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

const defaultCoverMIME = "image/jpeg"

// MetadataExtractor turns a source ref into a displayable cover image
type MetadataExtractor interface {
	// ExtractCover returns a data URI for the embedded picture, or false when
	// there is none. Every failure is logged and reported as false.
	ExtractCover(ctx context.Context, sourceRef string) (string, bool)
}

type metadataExtractor struct {
	logger       *zap.Logger
	fetcher      Fetcher
	maxCoverSize int
}

// NewMetadataExtractor creates an extractor. maxCoverSize > 0 downscales
// covers whose longest side exceeds it.
func NewMetadataExtractor(logger *zap.Logger, fetcher Fetcher, maxCoverSize int) MetadataExtractor {
	return &metadataExtractor{
		logger:       logger,
		fetcher:      fetcher,
		maxCoverSize: maxCoverSize,
	}
}

func (e *metadataExtractor) ExtractCover(ctx context.Context, sourceRef string) (cover string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("Cover extraction panicked", zap.String("src", sourceRef), zap.Any("panic", r))
			metrics.CoverExtractionsTotal.WithLabelValues("parse_error").Inc()
			cover, ok = "", false
		}
	}()

	src, err := e.open(ctx, sourceRef)
	if err != nil {
		e.logger.Warn("Error fetching audio file", zap.String("src", sourceRef), zap.Error(err))
		metrics.CoverExtractionsTotal.WithLabelValues("fetch_error").Inc()
		return "", false
	}
	defer src.Close()

	meta, err := tag.ReadFrom(src)
	if err != nil {
		e.logger.Warn("Error reading tags", zap.String("src", sourceRef), zap.Error(err))
		metrics.CoverExtractionsTotal.WithLabelValues("parse_error").Inc()
		return "", false
	}

	pic := meta.Picture()
	if pic == nil || len(pic.Data) == 0 {
		e.logger.Debug("No cover art found in metadata", zap.String("src", sourceRef))
		metrics.CoverExtractionsTotal.WithLabelValues("absent").Inc()
		return "", false
	}

	mimeType := pic.MIMEType
	if mimeType == "" {
		mimeType = defaultCoverMIME
	}
	picData := pic.Data

	if e.maxCoverSize > 0 {
		if resized, resizedMIME, err := downscaleCover(picData, mimeType, e.maxCoverSize); err != nil {
			e.logger.Debug("Keeping original cover", zap.String("src", sourceRef), zap.Error(err))
		} else {
			picData, mimeType = resized, resizedMIME
		}
	}

	e.logger.Debug("Cover art found",
		zap.String("src", sourceRef),
		zap.String("format", mimeType),
		zap.Int("bytes", len(picData)))
	metrics.CoverExtractionsTotal.WithLabelValues("found").Inc()

	return DataURI(mimeType, picData), true
}

// open prefers a seekable reader and falls back to fetching the whole file
func (e *metadataExtractor) open(ctx context.Context, sourceRef string) (io.ReadSeekCloser, error) {
	if opener, ok := e.fetcher.(Opener); ok {
		return opener.Open(ctx, sourceRef)
	}
	data, err := e.fetcher.Fetch(ctx, sourceRef)
	if err != nil {
		return nil, err
	}
	return nopCloser{bytes.NewReader(data)}, nil
}

type nopCloser struct {
	io.ReadSeeker
}

func (nopCloser) Close() error { return nil }

// DataURI encodes raw image bytes as a self-contained data URI
func DataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// downscaleCover fits the image into maxSize x maxSize. Images already small
// enough are returned unchanged.
func downscaleCover(data []byte, mimeType string, maxSize int) ([]byte, string, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode cover: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= maxSize && bounds.Dy() <= maxSize {
		return data, mimeType, nil
	}

	format, outMIME := imaging.JPEG, "image/jpeg"
	if mimeType == "image/png" {
		format, outMIME = imaging.PNG, "image/png"
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Fit(img, maxSize, maxSize, imaging.Lanczos), format); err != nil {
		return nil, "", fmt.Errorf("encode cover: %w", err)
	}
	return buf.Bytes(), outMIME, nil
}
