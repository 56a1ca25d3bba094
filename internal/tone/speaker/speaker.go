// Package speaker plays tones through the system audio output.
package speaker

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/hajimehoshi/oto/v2"
)

// oto allows a single context per process
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoRate int
	otoErr  error
)

func otoContext(sampleRate int) (*oto.Context, error) {
	otoOnce.Do(func() {
		var ready chan struct{}
		otoCtx, ready, otoErr = oto.NewContext(sampleRate, 1, oto.FormatFloat32LE)
		if otoErr == nil {
			<-ready
			otoRate = sampleRate
		}
	})
	if otoErr != nil {
		return nil, otoErr
	}
	if otoRate != sampleRate {
		return nil, fmt.Errorf("audio output already opened at %d Hz, cannot play at %d Hz", otoRate, sampleRate)
	}
	return otoCtx, nil
}

// Player plays through the system audio output. It is kept apart from
// package tone since oto links against the platform audio libraries.
type Player struct {
	mu sync.Mutex
}

// New creates a player. The output device is opened on first use.
func New() *Player {
	return &Player{}
}

func (p *Player) Play(ctx context.Context, samples []float32, sampleRate int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	octx, err := otoContext(sampleRate)
	if err != nil {
		return fmt.Errorf("open audio output: %w", err)
	}

	player := octx.NewPlayer(bytes.NewReader(encodeFloat32LE(samples)))
	defer player.Close()
	player.Play()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return player.Err()
}

func encodeFloat32LE(samples []float32) []byte {
	out := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}
	return out
}
