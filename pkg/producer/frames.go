package producer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/dmitrymomot/beacon/pkg/notification"
)

// Frames cycles through a fixed sequence of raw frames. Each frame travels
// as one base64 encoded notification, so over HTTP a frame must stay well
// below httprpc.MaxBodySize; a sink rejects larger ones and they stay at the
// head of its retry queue.
type Frames struct {
	mu     sync.Mutex
	frames [][]byte
	next   int
}

func NewFrames(frames [][]byte) (*Frames, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	return &Frames{frames: frames}, nil
}

// LoadFrames reads every regular file in dir, ordered by file name, as one frame.
func LoadFrames(dir string) (*Frames, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var frames [][]byte
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, errors.Join(err, errors.New("producer: reading frame "+e.Name()))
		}
		frames = append(frames, data)
	}
	return NewFrames(frames)
}

func (f *Frames) Len() int { return len(f.frames) }

// Next returns the next frame, wrapping around after the last one.
func (f *Frames) Next() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	frame := f.frames[f.next]
	f.next = (f.next + 1) % len(f.frames)
	return frame
}

// Step returns a step that publishes the next frame.
func (f *Frames) Step(pub Publisher[[]byte], opts ...notification.Option) Step {
	return func(ctx context.Context) error {
		return pub.Send(ctx, f.Next(), opts...)
	}
}
