//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	evdev "github.com/gvalkov/golang-evdev"

	"pimpmobile-teleop/wheel"
)

// EvdevSource reads a single evdev device. Only absolute-axis and key
// events are surfaced; sync and misc reports are skipped.
type EvdevSource struct {
	dev  *evdev.InputDevice
	path string

	events    chan evdev.InputEvent
	done      chan struct{}
	closing   chan struct{}
	closeOnce sync.Once
	err       error
}

// FindDevice returns the path of the first input device whose name contains
// name.
func FindDevice(name string) (string, error) {
	devices, err := evdev.ListInputDevices()
	if err != nil {
		return "", fmt.Errorf("list input devices: %w", err)
	}

	path := ""
	for _, d := range devices {
		if path == "" && strings.Contains(d.Name, name) {
			path = d.Fn
		}
		_ = d.File.Close()
	}
	if path == "" {
		return "", fmt.Errorf("no input device matching %q among %d devices", name, len(devices))
	}
	return path, nil
}

// OpenEvdevSource opens path and starts reading from it
func OpenEvdevSource(path string) (*EvdevSource, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	s := &EvdevSource{
		dev:     dev,
		path:    path,
		events:  make(chan evdev.InputEvent, 256),
		done:    make(chan struct{}),
		closing: make(chan struct{}),
	}
	go s.read()
	return s, nil
}

// Name is the device's reported name
func (s *EvdevSource) Name() string {
	return s.dev.Name
}

func (s *EvdevSource) read() {
	defer close(s.done)
	for {
		batch, err := s.dev.Read()
		if err != nil {
			s.err = err
			return
		}
		for _, ev := range batch {
			select {
			case s.events <- ev:
			case <-s.closing:
				return
			}
		}
	}
}

func (s *EvdevSource) Next(ctx context.Context) (wheel.RawEvent, error) {
	for {
		select {
		case <-ctx.Done():
			return wheel.RawEvent{}, ctx.Err()
		case ev := <-s.events:
			if raw, ok := toRawEvent(ev); ok {
				return raw, nil
			}
		case <-s.done:
			if raw, ok := s.drain(); ok {
				return raw, nil
			}
			select {
			case <-s.closing:
				return wheel.RawEvent{}, errors.New("device closed")
			default:
			}
			return wheel.RawEvent{}, fmt.Errorf("device %s disconnected: %w", s.path, s.err)
		}
	}
}

// drain returns an event queued before the reader stopped, if any
func (s *EvdevSource) drain() (wheel.RawEvent, bool) {
	for {
		select {
		case ev := <-s.events:
			if raw, ok := toRawEvent(ev); ok {
				return raw, true
			}
		default:
			return wheel.RawEvent{}, false
		}
	}
}

func (s *EvdevSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closing)
		err = s.dev.File.Close()
	})
	return err
}

func toRawEvent(ev evdev.InputEvent) (wheel.RawEvent, bool) {
	var kind wheel.EventKind
	switch ev.Type {
	case evdev.EV_ABS:
		kind = wheel.Axis
	case evdev.EV_KEY:
		kind = wheel.Button
	default:
		return wheel.RawEvent{}, false
	}
	return wheel.RawEvent{Kind: kind, Code: int(ev.Code), Value: int(ev.Value)}, true
}
