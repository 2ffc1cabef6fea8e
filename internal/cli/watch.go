package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	resumescanErrors "resumescan/internal/errors"
	"resumescan/internal/utils"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Analyze resumes as they are written into a directory",
	Long: `Watch monitors a directory and analyzes every .txt resume that is created or
modified there, writing <name>.analysis.json beside it. Rapid successive writes
to one file are debounced into a single analysis. Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var (
	watchFlags    analyzeOptions
	watchExisting bool
)

func init() {
	watchFlags.register(watchCmd)
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "Also analyze resumes already in the directory that have no analysis yet")
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())
	rt, err := startRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	fa := newFileAnalyzer(rt.pipeline(), rt.cfg.App.MaxFileSize, watchFlags, logger)
	handle := func(ctx context.Context, path string) error {
		summary, err := fa.AnalyzeFile(ctx, path)
		if err != nil {
			return err
		}
		logger.Info("Resume analyzed", "file", path, "score", summary.Score, "ats_score", summary.ATSScore)
		return nil
	}

	w := newDirWatcher(args[0], rt.cfg.Watch.Debounce, rt.cfg.Watch.Concurrency, handle, logger)
	w.scanExisting = watchExisting
	return w.Run(cmd.Context())
}

// dirWatcher debounces file system events in one directory and hands resume
// files to a bounded pool of handlers
type dirWatcher struct {
	dir          string
	debounce     time.Duration
	handle       func(ctx context.Context, path string) error
	logger       *resumescanErrors.Logger
	scanExisting bool

	mu      sync.Mutex
	timers  map[string]*time.Timer
	pending sync.WaitGroup
	workers errgroup.Group
}

func newDirWatcher(dir string, debounce time.Duration, concurrency int, handle func(context.Context, string) error, logger *resumescanErrors.Logger) *dirWatcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	w := &dirWatcher{
		dir:      dir,
		debounce: debounce,
		handle:   handle,
		logger:   logger,
		timers:   make(map[string]*time.Timer),
	}
	w.workers.SetLimit(max(1, concurrency))
	return w
}

// Run watches until ctx is cancelled, then waits for in-flight analyses
func (w *dirWatcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return resumescanErrors.NewIOError(resumescanErrors.ErrCodeFileNotFound,
			fmt.Sprintf("Cannot watch directory: %s", w.dir), err)
	}
	if !info.IsDir() {
		return resumescanErrors.NewValidationError(resumescanErrors.ErrCodeInvalidInput,
			fmt.Sprintf("Not a directory: %s", w.dir), nil)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if err := fsWatcher.Close(); err != nil {
			w.logger.LogError(err, "Failed to close file watcher")
		}
	}()

	if err := fsWatcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("Watching directory for resumes", "dir", w.dir, "debounce", w.debounce.String())

	if w.scanExisting {
		w.queueExisting(ctx)
	}

	for {
		select {
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return w.drain()
			}
			if shouldProcessEvent(event) {
				w.schedule(ctx, event.Name)
			}

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return w.drain()
			}
			w.logger.LogError(err, "File watcher error", "dir", w.dir)

		case <-ctx.Done():
			w.logger.Info("Stopping directory watcher", "dir", w.dir)
			return w.drain()
		}
	}
}

// shouldProcessEvent reports whether an event may have produced a complete resume file
func shouldProcessEvent(event fsnotify.Event) bool {
	if !utils.IsResumeCandidate(event.Name) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create) != 0
}

// schedule (re)starts the debounce timer for path
func (w *dirWatcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.scheduleLocked(ctx, path)
}

// scheduleLocked is schedule with w.mu held
func (w *dirWatcher) scheduleLocked(ctx context.Context, path string) {
	if t, ok := w.timers[path]; ok && t.Stop() {
		w.pending.Done()
	}

	w.pending.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(w.debounce, func() {
		defer w.pending.Done()

		w.mu.Lock()
		// a newer timer may already own the entry
		if w.timers[path] == timer {
			delete(w.timers, path)
		}
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		w.workers.Go(func() error {
			if err := w.handle(ctx, path); err != nil {
				w.logger.LogError(err, "Resume analysis failed", "file", path)
			}
			return nil
		})
	})
	w.timers[path] = timer
}

func (w *dirWatcher) queueExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.LogError(err, "Failed to list existing resumes", "dir", w.dir)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !utils.IsResumeCandidate(entry.Name()) {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if _, err := os.Stat(utils.AnalysisOutputPath(path)); err == nil {
			continue
		}
		w.schedule(ctx, path)
	}
}

// drain cancels timers that have not fired and waits for running handlers
func (w *dirWatcher) drain() error {
	w.mu.Lock()
	for path, t := range w.timers {
		if t.Stop() {
			w.pending.Done()
		}
		delete(w.timers, path)
	}
	w.mu.Unlock()

	w.pending.Wait()
	return w.workers.Wait()
}
