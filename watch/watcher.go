// Package watch resizes images as they appear in an input directory.
package watch

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nvr-ai/go-resize/batch"
	"github.com/nvr-ai/go-resize/util"
	"github.com/pkg/errors"
)

// DefaultDebounce is how long a file must stay quiet before it is processed.
const DefaultDebounce = 500 * time.Millisecond

// Watcher monitors one directory and resizes new or rewritten images into another.
type Watcher struct {
	proc     *batch.Processor
	seq      *batch.Sequence
	inDir    string
	outDir   string
	debounce time.Duration

	fs      *fsnotify.Watcher
	results chan batch.Result

	mu     sync.Mutex
	timers map[string]*time.Timer
	wg     sync.WaitGroup
}

// Options configures a Watcher.
type Options struct {
	// Start is the sequence position of the first watched image, usually the
	// number of images already processed by a preceding batch run.
	Start int
	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration
}

// New creates a watcher for inDir. Results are written to outDir, which must differ from inDir.
func New(proc *batch.Processor, inDir, outDir string, opt Options) (*Watcher, error) {
	absIn, err := filepath.Abs(inDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve input directory")
	}
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve output directory")
	}
	if absIn == absOut {
		return nil, errors.Errorf("input and output directory are the same: %s", absIn)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := fsWatcher.Add(inDir); err != nil {
		fsWatcher.Close()
		return nil, errors.Wrapf(err, "failed to watch folder %s", inDir)
	}

	debounce := opt.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		proc:     proc,
		seq:      batch.NewSequence(proc.Sizes, opt.Start),
		inDir:    inDir,
		outDir:   outDir,
		debounce: debounce,
		fs:       fsWatcher,
		results:  make(chan batch.Result, 100),
		timers:   make(map[string]*time.Timer),
	}, nil
}

// Results delivers one Result per processed file. It is closed when Run returns.
func (w *Watcher) Results() <-chan batch.Result {
	return w.results
}

// Run processes events until ctx is cancelled. Pending debounced files are
// dropped, in-flight files are finished before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	batch.Logger().Info("watching folder", "dir", w.inDir, "output", w.outDir)
	defer func() {
		w.fs.Close()
		w.stopTimers()
		w.wg.Wait()
		close(w.results)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.schedule(event.Name)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			batch.Logger().Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	return util.HasImageExtension(name, w.proc.Extensions)
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok && t.Stop() {
		w.wg.Done()
	}

	w.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()

		w.mu.Lock()
		if w.timers[path] == t {
			delete(w.timers, path)
		}
		w.mu.Unlock()

		w.handle(path)
	})
	w.timers[path] = t
}

func (w *Watcher) handle(path string) {
	res := w.proc.ProcessFile(path, w.seq.Next(), w.outDir)
	if res.Err == nil {
		batch.Logger().Info("resized new image", "file", path, "output", res.Output, "size", res.Actual)
	}

	select {
	case w.results <- res:
	default:
		batch.Logger().Warn("result dropped, consumer too slow", "file", path)
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.timers, path)
	}
}
