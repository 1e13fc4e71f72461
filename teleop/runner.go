package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"pimpmobile-teleop/utils"
	"pimpmobile-teleop/wheel"
)

type Runner struct {
	log     *utils.Logger
	clock   clockwork.Clock
	decoder *wheel.Decoder
	source  wheel.Source
	pub     wheel.Publisher

	// keep-alive republish period, 0 disables it
	cycle time.Duration

	closers   []io.Closer
	published uint64
}

// NewRunner opens the event source and every configured publisher
func NewRunner(ctx context.Context, cfg Config, log *utils.Logger) (*Runner, error) {
	layout := wheel.DefaultLayout()
	if cfg.LayoutPath != "" {
		l, err := wheel.LoadLayout(cfg.LayoutPath)
		if err != nil {
			return nil, fmt.Errorf("load layout: %w", err)
		}
		layout = l
	}

	decoder, err := wheel.NewDecoder(layout)
	if err != nil {
		return nil, fmt.Errorf("decoder: %w", err)
	}

	clock := clockwork.NewRealClock()
	r := &Runner{
		log:     log.With("runner"),
		clock:   clock,
		decoder: decoder,
	}

	ok := false
	defer func() {
		if !ok {
			r.Close()
		}
	}()

	sinks := fanout{LogPublisher{log: log.With("tx")}}
	cycle := time.Duration(defaultCycleMS) * time.Millisecond

	if cfg.Interface != "" {
		cmap, err := utils.LoadCANMap(cfg.MapPath)
		if err != nil {
			return nil, fmt.Errorf("load can map: %w", err)
		}

		writer, err := utils.NewSocketCANWriter(ctx, cfg.Interface)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, writer)

		cp, err := NewCANPublisher(cmap, cfg.FrameName, writer)
		if err != nil {
			return nil, err
		}
		if cp.Cycle() > 0 {
			cycle = cp.Cycle()
		}
		sinks = append(sinks, cp)
		log.Info("CAN publisher: frame=%s id=0x%X dlc=%d cycle_ms=%d iface=%s",
			cp.Frame().Name, cp.Frame().ID, cp.Frame().DLC, cp.Frame().CycleMS, cfg.Interface)
	}

	if cfg.UDPAddr != "" {
		up, err := NewUDPPublisher(cfg.UDPAddr, cfg.UDPTTL)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, up)
		sinks = append(sinks, up)
		log.Info("UDP publisher: dst=%s ttl=%d", cfg.UDPAddr, cfg.UDPTTL)
	}
	r.pub = sinks

	if cfg.KeepAlive {
		r.cycle = cycle
	}

	switch {
	case cfg.ReplayPath != "":
		events, err := wheel.LoadReplay(cfg.ReplayPath)
		if err != nil {
			return nil, fmt.Errorf("load replay: %w", err)
		}
		r.source = wheel.NewReplaySource(clock, events)
		log.Info("Replaying %d events from %s", len(events), cfg.ReplayPath)

	default:
		path := cfg.DevicePath
		if path == "" {
			path, err = FindDevice(cfg.DeviceName)
			if err != nil {
				return nil, err
			}
		}
		src, err := OpenEvdevSource(path)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, src)
		r.source = src
		log.Info("Reading %q from %s", src.Name(), path)
	}

	ok = true
	return r, nil
}

func newRunner(log *utils.Logger, clock clockwork.Clock, decoder *wheel.Decoder, src wheel.Source, pub wheel.Publisher, cycle time.Duration) *Runner {
	return &Runner{
		log:     log,
		clock:   clock,
		decoder: decoder,
		source:  src,
		pub:     pub,
		cycle:   cycle,
	}
}

func (r *Runner) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		_ = r.closers[i].Close()
	}
	r.closers = nil
}

// stampedEvent carries an event with the time it was read from the source
type stampedEvent struct {
	ev wheel.RawEvent
	at time.Time
}

// Run reads events until the source ends or ctx is cancelled. Events are
// applied in read order, each at the time it was read, and every snapshot
// is published before the next event is applied.
func (r *Runner) Run(ctx context.Context) error {
	layout := r.decoder.Layout()
	r.log.Info("Starting: layout=%q keepalive=%s", layout.Name, r.cycle)

	events := make(chan stampedEvent, 64)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(events)
		return r.readLoop(gctx, events)
	})
	g.Go(func() error {
		// ctx, not gctx: a failing source must not cut off events it already read
		return r.publishLoop(ctx, events)
	})

	err := g.Wait()
	r.log.Info("Stopped. snapshots_published=%d", r.published)
	return err
}

func (r *Runner) readLoop(ctx context.Context, events chan<- stampedEvent) error {
	for {
		ev, err := r.source.Next(ctx)
		if errors.Is(err, io.EOF) {
			r.log.Info("Event source ended")
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read event: %w", err)
		}

		select {
		case events <- stampedEvent{ev: ev, at: r.clock.Now()}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// publishLoop runs until events is closed and drained, ctx is cancelled or
// a publish fails.
func (r *Runner) publishLoop(ctx context.Context, events <-chan stampedEvent) error {
	var tick <-chan time.Time
	if r.cycle > 0 {
		ticker := r.clock.NewTicker(r.cycle)
		defer ticker.Stop()
		tick = ticker.Chan()
	}

	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case se, ok := <-events:
			if !ok {
				return nil
			}
			state, err := r.decoder.HandleEvent(se.ev, se.at)
			if err != nil {
				r.log.Error("Decode failed: %v", err)
				return err
			}
			if err := r.publish(ctx, state); err != nil {
				return err
			}
			last = r.clock.Now()

		case now := <-tick:
			if !last.IsZero() && now.Sub(last) < r.cycle {
				continue
			}
			if err := r.publish(ctx, r.decoder.Hold()); err != nil {
				return err
			}
			last = now
		}
	}
}

func (r *Runner) publish(ctx context.Context, state wheel.CommandState) error {
	if err := r.pub.Publish(ctx, state.Vector()); err != nil {
		r.log.Critical("Publish failed: %v", err)
		return err
	}
	r.published++
	return nil
}
