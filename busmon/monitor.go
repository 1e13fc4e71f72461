package main

import (
	"context"
	"fmt"

	"go.einride.tech/can"

	"pimpmobile-teleop/utils"
	"pimpmobile-teleop/wheel"
)

// Monitor decodes teleop command frames back into vectors and reports
// changes.
type Monitor struct {
	cmap *utils.CANMap
	fd   *utils.FrameDef

	last    wheel.Vector
	seen    bool
	frames  uint64
	changes uint64
}

func NewMonitor(cmap *utils.CANMap, frameName string) (*Monitor, error) {
	fd, err := cmap.FrameByName(frameName)
	if err != nil {
		return nil, fmt.Errorf("frame: %w", err)
	}
	if missing := fd.MissingSignals(wheel.VectorFields[:]); len(missing) > 0 {
		return nil, fmt.Errorf("frame %s lacks signals %v", fd.Name, missing)
	}
	return &Monitor{cmap: cmap, fd: fd}, nil
}

// Observe decodes f. ok is false for frames with another ID; changed is true
// for the first frame and whenever the vector differs from the previous one.
func (m *Monitor) Observe(f can.Frame) (v wheel.Vector, ok, changed bool, err error) {
	if f.ID != m.fd.ID {
		return wheel.Vector{}, false, false, nil
	}

	values, err := m.cmap.DecodeEinrideFrame(f)
	if err != nil {
		return wheel.Vector{}, true, false, err
	}
	v = wheel.VectorFromSignals(values)

	m.frames++
	changed = !m.seen || v != m.last
	if changed {
		m.changes++
	}
	m.last = v
	m.seen = true
	return v, true, changed, nil
}

// Run logs every change at INFO and every repeat at TRACE until ctx ends or
// the reader fails.
func (m *Monitor) Run(ctx context.Context, r utils.CANReader, log *utils.Logger) error {
	defer func() {
		log.Info("Stopped. frames=%d changes=%d", m.frames, m.changes)
	}()

	for {
		f, err := r.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		v, ok, changed, err := m.Observe(f)
		if !ok {
			continue
		}
		if err != nil {
			log.Warn("Decode 0x%X failed: %v", f.ID, err)
			continue
		}
		if changed {
			log.Info("RX %s", v)
		} else {
			log.Trace("RX %s", v)
		}
	}
}
