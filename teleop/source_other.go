//go:build !linux

package main

import (
	"context"
	"errors"

	"pimpmobile-teleop/wheel"
)

var errNoEvdev = errors.New("evdev devices are only available on linux")

type EvdevSource struct{}

func FindDevice(string) (string, error) { return "", errNoEvdev }

func OpenEvdevSource(string) (*EvdevSource, error) { return nil, errNoEvdev }

func (s *EvdevSource) Name() string { return "" }

func (s *EvdevSource) Next(context.Context) (wheel.RawEvent, error) {
	return wheel.RawEvent{}, errNoEvdev
}

func (s *EvdevSource) Close() error { return nil }
