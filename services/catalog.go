package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"a4blend/metrics"
	"a4blend/types"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Enumerator supplies the ordered list of audio file identifiers
type Enumerator interface {
	Enumerate(ctx context.Context) ([]string, error)
}

// DirEnumerator lists the audio files below a library directory
type DirEnumerator struct {
	logger  *zap.Logger
	library *Library
}

// NewDirEnumerator creates an enumerator for the library root
func NewDirEnumerator(logger *zap.Logger, library *Library) *DirEnumerator {
	return &DirEnumerator{logger: logger, library: library}
}

// Enumerate returns library-relative, slash-separated paths in discovery order
func (d *DirEnumerator) Enumerate(ctx context.Context) ([]string, error) {
	return walkAudioFiles(ctx, d.library.Root(), d.logger)
}

// ProgressFunc is told about every finished file during a build
type ProgressFunc func(done, total int, current string)

// CatalogBuilder interface defines catalog construction
type CatalogBuilder interface {
	// BuildCatalog never fails: enumeration errors yield an empty catalog.
	BuildCatalog(ctx context.Context, onProgress ProgressFunc) types.Catalog
	// Build is BuildCatalog that also reports the enumeration error.
	Build(ctx context.Context, onProgress ProgressFunc) (types.Catalog, error)
}

type catalogBuilder struct {
	logger      *zap.Logger
	enumerator  Enumerator
	extractor   MetadataExtractor
	placeholder string
	workers     int
}

// NewCatalogBuilder creates a builder running at most workers extractions at once
func NewCatalogBuilder(logger *zap.Logger, enumerator Enumerator, extractor MetadataExtractor, placeholder string, workers int) CatalogBuilder {
	if workers <= 0 {
		workers = 1
	}
	return &catalogBuilder{
		logger:      logger,
		enumerator:  enumerator,
		extractor:   extractor,
		placeholder: placeholder,
		workers:     workers,
	}
}

func (b *catalogBuilder) BuildCatalog(ctx context.Context, onProgress ProgressFunc) types.Catalog {
	catalog, _ := b.Build(ctx, onProgress)
	return catalog
}

func (b *catalogBuilder) Build(ctx context.Context, onProgress ProgressFunc) (types.Catalog, error) {
	start := time.Now()

	files, err := b.enumerator.Enumerate(ctx)
	if err != nil {
		b.logger.Error("Error loading playlist", zap.Error(err))
		return types.Catalog{}, fmt.Errorf("enumerate audio files: %w", err)
	}

	// Each task owns exactly one slot, so the join needs no lock and
	// keeps enumeration order whatever the completion order.
	entries := make(types.Catalog, len(files))
	var done atomic.Int64

	var g errgroup.Group
	g.SetLimit(b.workers)
	for i, file := range files {
		g.Go(func() error {
			entries[i] = b.buildEntry(ctx, file)
			n := done.Add(1)
			if onProgress != nil {
				onProgress(int(n), len(files), file)
			}
			return nil
		})
	}
	_ = g.Wait()

	metrics.CatalogBuildDuration.Observe(time.Since(start).Seconds())
	b.logger.Info("Catalog built",
		zap.Int("entries", len(entries)),
		zap.Duration("took", time.Since(start)))

	return entries, nil
}

// buildEntry assembles one entry; any failure keeps the entry with the placeholder cover
func (b *catalogBuilder) buildEntry(ctx context.Context, file string) (entry types.CatalogEntry) {
	entry = types.CatalogEntry{
		Title:     TitleFromPath(file),
		SourceRef: SourceRefFor(file),
		Cover:     b.placeholder,
	}

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Error processing file", zap.String("file", file), zap.Any("panic", r))
			entry.Cover = b.placeholder
		}
	}()

	if cover, ok := b.extractor.ExtractCover(ctx, entry.SourceRef); ok {
		entry.Cover = cover
	}
	return entry
}

// CatalogStore holds the published catalog. Publishing swaps the whole
// catalog at once so readers never observe a partial build.
type CatalogStore struct {
	mu         sync.RWMutex
	catalog    types.Catalog
	generation uint64
	ready      bool
	listeners  []func(types.Catalog)
}

// NewCatalogStore creates an empty, not yet ready store
func NewCatalogStore() *CatalogStore {
	return &CatalogStore{}
}

// Catalog returns the current catalog and whether a build has been published
func (s *CatalogStore) Catalog() (types.Catalog, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog, s.ready
}

// Generation returns the generation of the published catalog
func (s *CatalogStore) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// OnPublish registers fn to be called with every newly published catalog
func (s *CatalogStore) OnPublish(fn func(types.Catalog)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Publish installs catalog unless a newer generation is already published
func (s *CatalogStore) Publish(generation uint64, catalog types.Catalog) bool {
	s.mu.Lock()
	if s.ready && generation <= s.generation {
		s.mu.Unlock()
		return false
	}
	s.catalog = catalog
	s.generation = generation
	s.ready = true
	listeners := append([]func(types.Catalog){}, s.listeners...)
	s.mu.Unlock()

	metrics.CatalogEntries.Set(float64(len(catalog)))
	for _, fn := range listeners {
		fn(catalog)
	}
	return true
}
