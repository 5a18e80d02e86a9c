// Package batch drives the resizer over a directory of images: it loads a
// catalog, assigns each image an increasing target size, writes the results
// and reloads the output directory.
package batch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/nvr-ai/go-resize/codec"
	"github.com/nvr-ai/go-resize/config"
	"github.com/nvr-ai/go-resize/images"
	"github.com/nvr-ai/go-resize/images/resizer"
	"github.com/nvr-ai/go-resize/util"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Catalog maps a file name to its decoded pixels.
type Catalog map[string]*images.PixelBuffer

// Names returns the catalog keys in sorted order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SizePolicy assigns target sizes by position: image i is resized toward
// (StartWidth + i*Step, StartHeight + i*Step).
type SizePolicy struct {
	StartWidth  int
	StartHeight int
	Step        int
}

// Target returns the requested size for the image at index i.
func (p SizePolicy) Target(i int) images.Dimensions {
	return images.Dimensions{
		Width:  p.StartWidth + i*p.Step,
		Height: p.StartHeight + i*p.Step,
	}
}

// Stage names where a per-image failure happened.
type Stage string

const (
	StageDecode Stage = "decode"
	StageResize Stage = "resize"
	StageEncode Stage = "encode"
)

// Result records the outcome for one image. Err is nil on success.
type Result struct {
	Name        string
	Source      string
	Output      string
	Requested   images.Dimensions
	Original    images.Dimensions
	Actual      images.Dimensions
	Prefiltered bool
	Duration    time.Duration
	Stage       Stage
	Err         error
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Processor loads, resizes and saves images. It is safe for concurrent use;
// every image is handled with buffers owned by its own call.
type Processor struct {
	Resizer    *resizer.Resizer
	Codec      codec.Codec
	Extensions []string
	Sizes      SizePolicy
	Workers    int
}

// NewProcessor builds a Processor from a validated configuration.
func NewProcessor(cfg *config.Config) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	r, err := cfg.Resizer()
	if err != nil {
		return nil, err
	}
	start, err := cfg.Sizes.StartSize()
	if err != nil {
		return nil, err
	}

	return &Processor{
		Resizer:    r,
		Codec:      codec.Codec{JPEGQuality: cfg.Output.JPEGQuality},
		Extensions: cfg.Extensions,
		Sizes: SizePolicy{
			StartWidth:  start.Width,
			StartHeight: start.Height,
			Step:        cfg.Sizes.Step,
		},
		Workers: cfg.Workers,
	}, nil
}

// LoadImages decodes every matching file in dir into a catalog.
// Files that fail to decode are logged, reported in the results and skipped.
//
// Arguments:
// - ctx: Cancels the scan between files.
// - dir: The directory to scan (not recursive).
//
// Returns:
// - Catalog: The decoded images keyed by file name.
// - []Result: One entry per file that failed to decode.
// - error: An error if the directory can not be read or ctx is done.
func (p *Processor) LoadImages(ctx context.Context, dir string) (Catalog, []Result, error) {
	files, err := util.LoadDirectoryImageFiles(dir, p.Extensions)
	if err != nil {
		return nil, nil, err
	}

	catalog := make(Catalog, len(files))
	var failures []Result
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		buf, err := p.Codec.Load(f.Path)
		if err != nil {
			Logger().Error("failed to load image", "file", f.Path, "error", err)
			failures = append(failures, Result{Name: f.Name, Source: f.Path, Stage: StageDecode, Err: err})
			continue
		}
		catalog[f.Name] = buf
	}

	Logger().Debug("loaded images", "dir", dir, "count", len(catalog), "failed", len(failures))
	return catalog, failures, nil
}

// SaveResized resizes every catalog image and writes it to outDir.
//
// Images are taken in sorted name order; image i is resized toward
// p.Sizes.Target(i) and saved as "<stem>_<W>x<H><ext>" using the requested
// size. With Workers > 1 images are processed concurrently, but every target
// is fixed by position before dispatch. A failing image is logged and
// recorded; the rest of the batch continues. Afterwards outDir is reloaded.
//
// Arguments:
// - ctx: Cancels the batch; images not yet started are skipped.
// - catalog: The decoded sources. Buffers are only read.
// - outDir: The output directory, created when missing.
//
// Returns:
// - Catalog: The images found in outDir after writing.
// - []Result: One result per catalog image, in name order.
// - error: An error if outDir can not be prepared or ctx is done.
func (p *Processor) SaveResized(ctx context.Context, catalog Catalog, outDir string) (Catalog, []Result, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, nil, errors.Wrapf(err, "failed to create output directory %s", outDir)
	}

	names := catalog.Names()
	results := make([]Result, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, p.Workers))
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.resizeOne(name, catalog[name], p.Sizes.Target(i), outDir)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, results, err
	}

	reloaded, reloadFailures, err := p.LoadImages(ctx, outDir)
	if err != nil {
		return nil, results, errors.Wrap(err, "failed to reload output directory")
	}
	for _, f := range reloadFailures {
		Logger().Warn("resized image could not be reloaded", "file", f.Source, "error", f.Err)
	}

	return reloaded, results, nil
}

// ProcessFile decodes a single file, resizes it toward target and saves it to outDir.
func (p *Processor) ProcessFile(path string, target images.Dimensions, outDir string) Result {
	name := filepath.Base(path)
	buf, err := p.Codec.Load(path)
	if err != nil {
		Logger().Error("failed to load image", "file", path, "error", err)
		return Result{Name: name, Source: path, Requested: target, Stage: StageDecode, Err: err}
	}
	r := p.resizeOne(name, buf, target, outDir)
	r.Source = path
	return r
}

func (p *Processor) resizeOne(name string, src *images.PixelBuffer, target images.Dimensions, outDir string) Result {
	start := time.Now()
	res := Result{
		Name:      name,
		Requested: target,
		Original:  src.Size(),
		Output:    filepath.Join(outDir, util.ResizedName(name, target.Width, target.Height)),
	}

	out, err := p.Resizer.Resize(src, target.Width, target.Height)
	if err != nil {
		res.Stage, res.Err = StageResize, err
		Logger().Error("failed to resize image", "file", name, "target", target, "error", err)
		return res
	}
	res.Actual = out.Size()
	res.Prefiltered = res.Original != res.Requested && resizer.IsDownscale(res.Original, res.Actual)

	if err := p.Codec.Save(out, res.Output); err != nil {
		res.Stage, res.Err = StageEncode, err
		Logger().Error("failed to save image", "file", res.Output, "error", err)
		return res
	}

	res.Duration = time.Since(start)
	Logger().Debug("resized image",
		"file", name,
		"original", res.Original,
		"requested", res.Requested,
		"actual", res.Actual,
		"prefiltered", res.Prefiltered,
		"duration", res.Duration,
	)
	return res
}

// Report summarizes a Run.
type Report struct {
	Loaded   int
	Resized  int
	Reloaded int
	Results  []Result
}

// Failures returns every failed result of the run.
func (r Report) Failures() []Result {
	return Failed(r.Results)
}

// Run loads inDir, resizes every image into outDir and reloads outDir.
func (p *Processor) Run(ctx context.Context, inDir, outDir string) (Report, error) {
	Logger().Info("starting batch", "input", inDir, "output", outDir, "workers", p.Workers)

	catalog, loadFailures, err := p.LoadImages(ctx, inDir)
	if err != nil {
		return Report{}, err
	}

	reloaded, results, err := p.SaveResized(ctx, catalog, outDir)
	report := Report{
		Loaded:   len(catalog),
		Reloaded: len(reloaded),
		Results:  append(loadFailures, results...),
	}
	for _, r := range results {
		if r.Err == nil && r.Actual != (images.Dimensions{}) {
			report.Resized++
		}
	}
	if err != nil {
		return report, err
	}

	Logger().Info("batch finished",
		"loaded", report.Loaded,
		"resized", report.Resized,
		"failed", len(report.Failures()),
		"reloaded", report.Reloaded,
	)
	return report, nil
}

// Sequence hands out increasing target sizes to images arriving one by one.
type Sequence struct {
	mu     sync.Mutex
	policy SizePolicy
	next   int
}

// NewSequence starts a sequence at position start.
func NewSequence(policy SizePolicy, start int) *Sequence {
	return &Sequence{policy: policy, next: start}
}

// Next returns the next target size.
func (s *Sequence) Next() images.Dimensions {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.policy.Target(s.next)
	s.next++
	return t
}
