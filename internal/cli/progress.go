package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// progress draws a progress bar on stderr. A nil progress draws nothing, so
// quiet runs can pass it around unchanged.
type progress struct {
	bar *progressbar.ProgressBar
}

func newProgress(quiet bool, total int, description, unit string) *progress {
	if quiet || total == 0 {
		return nil
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString(unit),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
	return &progress{bar: bar}
}

// step advances the bar by one finished task. It matches worker.ProgressFunc
// and may be called from several goroutines.
func (p *progress) step(done, total int) {
	if p == nil {
		return
	}
	_ = p.bar.Add(1)
}

func (p *progress) finish() {
	if p == nil {
		return
	}
	_ = p.bar.Finish()
}
