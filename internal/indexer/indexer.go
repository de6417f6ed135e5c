package indexer

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/coderag/internal/chunker"
	"github.com/dshills/coderag/internal/corpus"
	"github.com/dshills/coderag/internal/logger"
	"github.com/dshills/coderag/internal/parser"
	"github.com/dshills/coderag/pkg/types"
)

// Indexer coordinates the extraction pipeline: walk -> parse -> chunk
type Indexer struct {
	parser  *parser.Parser
	chunker *chunker.Chunker
	log     *slog.Logger

	// Worker pool configuration
	workers int
}

// Config contains configuration for the indexer
type Config struct {
	Workers        int  // Number of concurrent workers (default: runtime.NumCPU())
	IncludeTests   bool // Whether to extract from _test.go files
	IncludeVendor  bool // Whether to descend into vendor directories
	SkipUnexported bool // Whether to drop unexported declarations
	Logger         *slog.Logger
}

// Statistics contains statistics about an extraction run
type Statistics struct {
	FilesFound       int
	FilesExtracted   int
	FilesSkipped     int // syntax errors
	FilesFailed      int // unreadable
	FragmentsCreated int
	Duration         time.Duration
	ErrorMessages    []string
}

// New creates a new Indexer instance
func New(cfg Config) *Indexer {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	c := chunker.New()
	c.SkipUnexported = cfg.SkipUnexported

	return &Indexer{
		parser:  parser.New(),
		chunker: c,
		log:     logger.OrNop(cfg.Logger),
		workers: workers,
	}
}

// Extract walks rootPath and returns one fragment per declaration in
// every Go file found, in path order, with 1-based ids. A file that
// cannot be read or parsed contributes no fragments and never stops the
// walk.
func (idx *Indexer) Extract(ctx context.Context, rootPath string, cfg Config) ([]types.Fragment, *Statistics, error) {
	startTime := time.Now()
	stats := &Statistics{
		ErrorMessages: make([]string, 0),
	}

	files, err := idx.discoverFiles(rootPath, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to discover files: %w", err)
	}
	stats.FilesFound = len(files)

	perFile := make([][]types.Fragment, len(files))

	var (
		extracted atomic.Int32
		skipped   atomic.Int32
		failed    atomic.Int32
		mu        sync.Mutex // Protect stats.ErrorMessages
	)
	record := func(counter *atomic.Int32, path string, msg string) {
		counter.Add(1)
		mu.Lock()
		stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %s", path, msg))
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.workers)

	for i, filePath := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			relPath, err := filepath.Rel(rootPath, filePath)
			if err != nil {
				relPath = filePath
			}
			relPath = filepath.ToSlash(relPath)

			result, src, err := idx.parser.ParseFile(filePath)
			if err != nil {
				record(&failed, relPath, err.Error())
				idx.log.Warn("skipping unreadable file", "path", relPath, "error", err)
				return nil
			}
			if result.HasErrors() {
				record(&skipped, relPath, result.Errors[0].Message)
				idx.log.Warn("skipping file with syntax errors", "path", relPath, "error", result.Errors[0].Message)
				return nil
			}

			perFile[i] = idx.chunker.ChunkFile(relPath, src, result)
			extracted.Add(1)
			idx.log.Debug("extracted", "path", relPath, "fragments", len(perFile[i]))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	fragments := make([]types.Fragment, 0)
	for _, ff := range perFile {
		fragments = append(fragments, ff...)
	}
	for i := range fragments {
		fragments[i].ID = i + 1
	}

	stats.FilesExtracted = int(extracted.Load())
	stats.FilesSkipped = int(skipped.Load())
	stats.FilesFailed = int(failed.Load())
	stats.FragmentsCreated = len(fragments)
	stats.Duration = time.Since(startTime)

	idx.log.Info("extraction finished",
		"root", rootPath,
		"files", stats.FilesFound,
		"skipped", stats.FilesSkipped+stats.FilesFailed,
		"fragments", stats.FragmentsCreated,
		"duration", stats.Duration)

	return fragments, stats, nil
}

// discoverFiles finds all Go files under rootPath in lexical order.
// Unreadable directories are logged and skipped.
func (idx *Indexer) discoverFiles(rootPath string, cfg Config) ([]string, error) {
	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", rootPath)
	}

	var files []string
	err = filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == rootPath {
				return err
			}
			idx.log.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path == rootPath {
				return nil
			}
			name := d.Name()
			if !cfg.IncludeVendor && name == "vendor" {
				return filepath.SkipDir
			}
			if strings.HasPrefix(name, ".") || name == "testdata" {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		if !cfg.IncludeTests && strings.HasSuffix(path, "_test.go") {
			return nil
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// WriteCorpus writes fragments to path as a corpus file. The file is
// written beside path and renamed into place.
func WriteCorpus(path string, fragments []types.Fragment) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp corpus: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	w := bufio.NewWriter(tmp)
	if err := corpus.Write(w, fragments); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write corpus: %w", err)
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write corpus: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write corpus: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}
