package batch

import (
	"context"
	"time"
)

// SetPause replaces the pacing sleep so tests can observe pauses without waiting.
func SetPause(p *Processor, fn func(ctx context.Context, d time.Duration) error) {
	p.pause = fn
}
