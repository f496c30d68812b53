package dubbing

import (
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"dubber/internal/logging"
)

// Progress receives one call per completed synthesis unit.
type Progress interface {
	Step(done, total int)
	Done()
}

// NewProgress returns a terminal progress bar when out is a TTY and a
// sampled log reporter otherwise.
func NewProgress(out *os.File, total int, logger *slog.Logger) Progress {
	if out != nil && isTerminal(out.Fd()) {
		return newBarProgress(out, total)
	}
	return newLogProgress(logger)
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type barProgress struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func newBarProgress(out io.Writer, total int) *barProgress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("synthesizing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return &barProgress{bar: bar}
}

func (p *barProgress) Step(int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.bar.Add(1)
}

func (p *barProgress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.bar.Finish()
}

type logProgress struct {
	mu      sync.Mutex
	sampler *logging.ProgressSampler
	logger  *slog.Logger
}

func newLogProgress(logger *slog.Logger) *logProgress {
	return &logProgress{
		sampler: logging.NewProgressSampler(10),
		logger:  logging.NewComponentLogger(logger, "scheduler"),
	}
}

func (p *logProgress) Step(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.sampler.ShouldLog(done, total) {
		return
	}
	p.logger.Info("synthesis progress",
		logging.Int("done", done),
		logging.Int("total", total),
		logging.Float64("percent", logging.Percent(done, total)),
	)
}

func (p *logProgress) Done() {}

type noProgress struct{}

func (noProgress) Step(int, int) {}
func (noProgress) Done()         {}
