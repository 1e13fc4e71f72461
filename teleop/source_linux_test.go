//go:build linux

package main

import (
	"context"
	"io"
	"testing"

	evdev "github.com/gvalkov/golang-evdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pimpmobile-teleop/wheel"
)

func TestToRawEvent(t *testing.T) {
	raw, ok := toRawEvent(evdev.InputEvent{Type: evdev.EV_ABS, Code: 0, Value: 32768})
	assert.True(t, ok)
	assert.Equal(t, wheel.RawEvent{Kind: wheel.Axis, Code: 0, Value: 32768}, raw)

	raw, ok = toRawEvent(evdev.InputEvent{Type: evdev.EV_KEY, Code: 712, Value: 1})
	assert.True(t, ok)
	assert.Equal(t, wheel.RawEvent{Kind: wheel.Button, Code: 712, Value: 1}, raw)

	_, ok = toRawEvent(evdev.InputEvent{Type: evdev.EV_SYN})
	assert.False(t, ok)
	_, ok = toRawEvent(evdev.InputEvent{Type: evdev.EV_MSC, Code: 4, Value: 589825})
	assert.False(t, ok)
}

func TestEvdevSource_DeliversQueuedEventsBeforeDisconnect(t *testing.T) {
	s := &EvdevSource{
		path:    "/dev/input/event9",
		events:  make(chan evdev.InputEvent, 4),
		done:    make(chan struct{}),
		closing: make(chan struct{}),
		err:     io.ErrUnexpectedEOF,
	}
	s.events <- evdev.InputEvent{Type: evdev.EV_KEY, Code: 712, Value: 1}
	s.events <- evdev.InputEvent{Type: evdev.EV_SYN}
	s.events <- evdev.InputEvent{Type: evdev.EV_ABS, Code: 0, Value: 100}
	close(s.done)

	ctx := context.Background()

	raw, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, wheel.RawEvent{Kind: wheel.Button, Code: 712, Value: 1}, raw)

	raw, err = s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, wheel.RawEvent{Kind: wheel.Axis, Code: 0, Value: 100}, raw)

	_, err = s.Next(ctx)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "/dev/input/event9")
}
