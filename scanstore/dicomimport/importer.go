// Package dicomimport creates scans from DICOM file headers.
package dicomimport

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"

	"github.com/suyashkumar/dicom"
	"golang.org/x/sync/errgroup"

	"github.com/arthur-debert/scanstore/internal/logging"
	"github.com/arthur-debert/scanstore/types"
)

// Target is the part of the store an import writes to
type Target interface {
	Tags() []types.Tag
	AddTag(tag types.Tag) error
	AddScan(scan types.Scan) error
	DocumentNames(collection string) ([]string, error)
}

// ParseFunc reads a DICOM header from a file. It is called from several
// goroutines at once.
type ParseFunc func(path string) (dicom.Dataset, error)

// Result summarizes an import
type Result struct {
	Added    []string // scans created
	Existing []string // files already in the store
	NotDICOM []string // files that could not be parsed as DICOM
	Failed   map[string]error
	Warnings []string // unconvertible element values, as "path: tag: reason"
}

// Option configures an Importer
type Option func(*Importer)

// WithElements replaces DefaultElements
func WithElements(elements []Element) Option {
	return func(im *Importer) {
		im.elements = elements
	}
}

// WithLogger sets the importer's logger
func WithLogger(logger *slog.Logger) Option {
	return func(im *Importer) {
		im.logger = logger
	}
}

// WithWorkers sets how many headers are parsed concurrently
func WithWorkers(n int) Option {
	return func(im *Importer) {
		if n > 0 {
			im.workers = n
		}
	}
}

// WithParser replaces the DICOM file parser
func WithParser(parse ParseFunc) Option {
	return func(im *Importer) {
		im.parse = parse
	}
}

// Importer walks a directory tree and adds one scan per DICOM file
type Importer struct {
	target   Target
	elements []Element
	parse    ParseFunc
	workers  int
	logger   *slog.Logger
}

// New creates an importer writing to target
func New(target Target, opts ...Option) *Importer {
	im := &Importer{
		target:   target,
		elements: DefaultElements,
		parse:    ParseHeader,
		workers:  runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(im)
	}
	im.logger = logging.Default(im.logger).With("component", "dicomimport")
	return im
}

// ParseHeader parses a DICOM file without reading its pixel data
func ParseHeader(path string) (dicom.Dataset, error) {
	return dicom.ParseFile(path, nil, dicom.SkipPixelData())
}

// EnsureTags adds the builtin tag of every mapped element missing from the schema
func (im *Importer) EnsureTags() error {
	schema := types.NewTagSet(im.target.Tags())
	for _, el := range im.elements {
		if _, ok := schema.Get(el.Name); ok {
			continue
		}
		if err := im.target.AddTag(el.Tag()); err != nil && !errors.Is(err, types.ErrTagExists) {
			return fmt.Errorf("adding tag %s: %w", el.Name, err)
		}
	}
	return nil
}

// Import adds every DICOM file under root. Scan paths are relative to root
// and slash separated. Files already in the store are left untouched.
// Headers are parsed concurrently; scans are added in walk order.
func (im *Importer) Import(ctx context.Context, root string) (Result, error) {
	start := time.Now()
	res := Result{Failed: make(map[string]error)}

	if err := im.EnsureTags(); err != nil {
		return res, err
	}
	schema := types.NewTagSet(im.target.Tags())

	names, err := im.target.DocumentNames(types.CollectionCurrent)
	if err != nil {
		return res, err
	}
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}

	files, err := im.walk(ctx, root, known, &res)
	if err != nil {
		return res, fmt.Errorf("importing %s: %w", root, err)
	}
	headers, err := im.parseAll(ctx, files)
	if err != nil {
		return res, fmt.Errorf("importing %s: %w", root, err)
	}

	for i, f := range files {
		h := headers[i]
		if h.err != nil {
			im.logger.Debug("skipping file", "path", f.rel, "error", h.err)
			res.NotDICOM = append(res.NotDICOM, f.rel)
			continue
		}
		values, skipped := Values(h.ds, im.elements, schema)
		for _, s := range skipped {
			res.Warnings = append(res.Warnings, f.rel+": "+s)
		}
		if err := im.target.AddScan(types.Scan{Path: f.rel, Values: values}); err != nil {
			res.Failed[f.rel] = err
			continue
		}
		res.Added = append(res.Added, f.rel)
	}

	im.logger.Info("import finished",
		"root", root,
		"added", len(res.Added),
		"existing", len(res.Existing),
		"not_dicom", len(res.NotDICOM),
		"failed", len(res.Failed),
		"duration", time.Since(start))
	return res, nil
}

type candidate struct {
	path string
	rel  string
}

type header struct {
	ds  dicom.Dataset
	err error
}

// walk lists the files under root that are not in the store yet
func (im *Importer) walk(ctx context.Context, root string, known map[string]bool, res *Result) ([]candidate, error) {
	var files []candidate
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if known[rel] {
			res.Existing = append(res.Existing, rel)
			return nil
		}
		files = append(files, candidate{path: path, rel: rel})
		return nil
	})
	return files, err
}

// parseAll parses every candidate's header. A file that fails to parse is
// reported in its header; only cancellation fails the whole batch.
func (im *Importer) parseAll(ctx context.Context, files []candidate) ([]header, error) {
	headers := make([]header, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ds, err := im.parse(f.path)
			headers[i] = header{ds: ds, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return headers, ctx.Err()
}
