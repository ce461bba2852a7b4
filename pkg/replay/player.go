package replay

import (
	"context"
	"io"
	"time"
)

// Player paces recorded frames by their offsets.
type Player struct {
	// Speed multiplies playback rate. Zero or less plays without delay.
	Speed float64
}

// NewPlayer creates a real-time player.
func NewPlayer() *Player {
	return &Player{Speed: 1}
}

// Play reads records from r and calls fn for each at its offset, relative
// to the moment playback started. It stops at the end of the recording, on
// the first fn error, or when ctx is cancelled.
func (p *Player) Play(ctx context.Context, r *Reader, fn func(Record) error) (int, error) {
	start := time.Now()
	played := 0

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		rec, err := r.Next()
		if err == io.EOF {
			return played, nil
		}
		if err != nil {
			return played, err
		}

		if p.Speed > 0 {
			due := time.Duration(float64(rec.Offset()) / p.Speed)
			if wait := due - time.Since(start); wait > 0 {
				timer.Reset(wait)
				select {
				case <-ctx.Done():
					return played, ctx.Err()
				case <-timer.C:
				}
			}
		}
		if err := ctx.Err(); err != nil {
			return played, err
		}

		if err := fn(rec); err != nil {
			return played, err
		}
		played++
	}
}
