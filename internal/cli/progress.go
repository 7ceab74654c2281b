package cli

import (
	"os"
	"sync"
	"time"

	"github.com/fmueller/meetnotes/internal/pipeline"
	"github.com/schollz/progressbar/v3"
)

type stopFunc func()

func startSpinner(enabled bool, description string) stopFunc {
	if !enabled {
		return func() {}
	}

	bar := progressbar.NewOptions(
		-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(80*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	stopCh := make(chan struct{})
	doneCh := make(chan struct{})

	go func() {
		defer close(doneCh)
		ticker := time.NewTicker(120 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-stopCh:
				_ = bar.Finish()
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stopCh)
			<-doneCh
		})
	}
}

// stageProgress renders pipeline events as a 0-100 bar on stderr. A disabled
// one still accepts events so callers need not check.
type stageProgress struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func newStageProgress(enabled bool) *stageProgress {
	if !enabled {
		return &stageProgress{}
	}
	return &stageProgress{bar: progressbar.NewOptions(
		100,
		progressbar.OptionSetDescription(pipeline.StageIdle.Label()),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(20),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
	)}
}

func (p *stageProgress) Observe(e pipeline.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		return
	}

	p.bar.Describe(e.Stage.Label())
	if e.Stage == pipeline.StageFailed {
		_ = p.bar.Clear()
		return
	}
	_ = p.bar.Set(e.Percent)
}

// Reset prepares the bar for the next input.
func (p *stageProgress) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Clear()
		p.bar.Reset()
	}
}

func (p *stageProgress) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}
