package utils

import (
	"context"
	"errors"
	"sync"

	"go.einride.tech/can"
)

// ErrBusClosed is returned by a closed LoopbackBus.
var ErrBusClosed = errors.New("can bus closed")

// LoopbackBus is an in-process bus: every written frame is delivered to
// the reader side. It stands in for SocketCAN in simulation and tests.
type LoopbackBus struct {
	frames    chan can.Frame
	done      chan struct{}
	closeOnce sync.Once
}

func NewLoopbackBus(depth int) *LoopbackBus {
	return &LoopbackBus{
		frames: make(chan can.Frame, depth),
		done:   make(chan struct{}),
	}
}

func (b *LoopbackBus) WriteFrame(ctx context.Context, frame can.Frame) error {
	select {
	case <-b.done:
		return ErrBusClosed
	case <-ctx.Done():
		return ctx.Err()
	case b.frames <- frame:
		return nil
	}
}

func (b *LoopbackBus) ReadFrame(ctx context.Context) (can.Frame, error) {
	select {
	case <-b.done:
		return can.Frame{}, ErrBusClosed
	case <-ctx.Done():
		return can.Frame{}, ctx.Err()
	case f := <-b.frames:
		return f, nil
	}
}

func (b *LoopbackBus) Close() error {
	b.closeOnce.Do(func() { close(b.done) })
	return nil
}
