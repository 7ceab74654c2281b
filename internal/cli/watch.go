package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fmueller/meetnotes/internal/pipeline"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var audioExtensions = []string{".wav", ".mp3", ".m4a", ".flac", ".ogg", ".opus", ".webm", ".mp4", ".aac", ".wma"}

const defaultSettle = 2 * time.Second

func newWatchCmd(app *appState) *cobra.Command {
	var (
		settle   time.Duration
		existing bool
	)

	cmd := &cobra.Command{
		Use:   "watch <directory>",
		Short: "Summarize recordings as they appear in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runWatch(cmd.Context(), args[0], settle, existing)
		},
	}

	cmd.Flags().DurationVar(&settle, "settle", defaultSettle, "How long a file must stay unchanged before it is processed")
	cmd.Flags().BoolVar(&existing, "existing", false, "Also process recordings already in the directory")
	return cmd
}

func (a *appState) runWatch(ctx context.Context, dir string, settle time.Duration, existing bool) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch directory: %s is not a directory", dir)
	}
	if settle <= 0 {
		settle = defaultSettle
	}

	preflightFn := a.preflightFn
	if preflightFn == nil {
		preflightFn = a.ensureReady
	}
	pipelineFn := a.pipelineFn
	if pipelineFn == nil {
		pipelineFn = a.newPipeline
	}
	if err := preflightFn(ctx, true); err != nil {
		return err
	}
	p, err := pipelineFn(ctx, nil)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("add watch path: %w", err)
	}

	q := newSettleQueue(settle)
	if existing {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("list %s: %w", dir, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() && isAudioFile(entry.Name()) {
				q.touch(filepath.Join(dir, entry.Name()), time.Time{})
			}
		}
	}

	a.log().Info("watching for recordings", zap.String("dir", dir), zap.Duration("settle", settle))
	ticker := time.NewTicker(settle / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.log().Info("watcher stopped")
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !isAudioFile(event.Name) {
				a.log().Debug("ignoring file", zap.String("path", event.Name))
				continue
			}
			q.touch(event.Name, time.Now())

		case err, ok := <-w.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			a.log().Warn("watcher error", zap.Error(err))

		case now := <-ticker.C:
			for _, path := range q.ready(now) {
				if err := a.processWatched(ctx, p, path); err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return err
				}
			}
		}
	}
}

// processWatched runs one file. Only configuration errors are returned; they
// stop the watcher like they stop a batch.
func (a *appState) processWatched(ctx context.Context, p *pipeline.Pipeline, path string) error {
	a.log().Info("new recording", zap.String("audio", path))
	return p.RunAll(ctx, fileSources([]string{path}), func(o pipeline.Outcome) {
		a.handleOutcome(o)
	})
}

// settleQueue remembers when each path last changed and releases it once it
// has been quiet for the settle period. A path is released at most once.
type settleQueue struct {
	settle  time.Duration
	pending map[string]time.Time
	done    map[string]bool
}

func newSettleQueue(settle time.Duration) *settleQueue {
	return &settleQueue{
		settle:  settle,
		pending: make(map[string]time.Time),
		done:    make(map[string]bool),
	}
}

func (q *settleQueue) touch(path string, at time.Time) {
	if q.done[path] {
		return
	}
	q.pending[path] = at
}

func (q *settleQueue) ready(now time.Time) []string {
	var out []string
	for path, last := range q.pending {
		if now.Sub(last) >= q.settle {
			out = append(out, path)
		}
	}
	slices.Sort(out)
	for _, path := range out {
		delete(q.pending, path)
		q.done[path] = true
	}
	return out
}

func isAudioFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return slices.Contains(audioExtensions, strings.ToLower(filepath.Ext(base)))
}
