package render

import (
	"sync"
	"time"
)

// percentMultiplier is used to convert a ratio to percentage (0-100).
const percentMultiplier = 100

// Progress tracks a running batch. Safe for concurrent use.
type Progress struct {
	total    int
	rendered int
	skipped  int
	failed   int

	startTime      time.Time
	lastUpdateTime time.Time

	mu sync.RWMutex
}

// NewProgress creates a tracker for total jobs.
func NewProgress(total int) *Progress {
	now := time.Now()
	return &Progress{
		total:          total,
		startTime:      now,
		lastUpdateTime: now,
	}
}

// Record counts one finished job.
func (p *Progress) Record(status Status) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch status {
	case StatusRendered:
		p.rendered++
	case StatusSkipped:
		p.skipped++
	case StatusFailed:
		p.failed++
	}
	p.lastUpdateTime = time.Now()
}

// remainingUnsafe extrapolates from the average time of finished renders.
// Skipped jobs are free and do not count. Returns 0 before the first render
// finishes.
func (p *Progress) remainingUnsafe(elapsed time.Duration) time.Duration {
	if p.rendered+p.failed == 0 {
		return 0
	}
	avg := elapsed / time.Duration(p.rendered+p.failed)
	return avg * time.Duration(p.total-p.doneUnsafe())
}

// Snapshot returns a copy of the current state.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	done := p.doneUnsafe()
	elapsed := time.Since(p.startTime)
	var pct float64
	if p.total > 0 {
		pct = float64(done) / float64(p.total) * percentMultiplier
	}
	return ProgressSnapshot{
		Total:           p.total,
		Done:            done,
		Rendered:        p.rendered,
		Skipped:         p.skipped,
		Failed:          p.failed,
		StartTime:       p.startTime,
		LastUpdateTime:  p.lastUpdateTime,
		PercentComplete: pct,
		ElapsedTime:     elapsed,
		Remaining:       p.remainingUnsafe(elapsed),
	}
}

func (p *Progress) doneUnsafe() int {
	return p.rendered + p.skipped + p.failed
}

// ProgressSnapshot is an immutable view of Progress.
type ProgressSnapshot struct {
	Total           int
	Done            int
	Rendered        int
	Skipped         int
	Failed          int
	StartTime       time.Time
	LastUpdateTime  time.Time
	PercentComplete float64
	ElapsedTime     time.Duration

	// Remaining is the estimated time left, 0 until a render finishes.
	Remaining time.Duration
}
