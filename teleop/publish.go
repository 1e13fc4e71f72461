package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/net/ipv4"

	"pimpmobile-teleop/utils"
	"pimpmobile-teleop/wheel"
)

// CANPublisher encodes each vector into one CAN frame
type CANPublisher struct {
	cmap   *utils.CANMap
	fd     *utils.FrameDef
	writer utils.CANWriter
	sent   uint64
}

func NewCANPublisher(cmap *utils.CANMap, frameName string, writer utils.CANWriter) (*CANPublisher, error) {
	fd, err := cmap.FrameByName(frameName)
	if err != nil {
		return nil, fmt.Errorf("frame: %w", err)
	}
	if missing := fd.MissingSignals(wheel.VectorFields[:]); len(missing) > 0 {
		return nil, fmt.Errorf("frame %s lacks signals %v", fd.Name, missing)
	}
	return &CANPublisher{cmap: cmap, fd: fd, writer: writer}, nil
}

// Cycle is the frame's nominal transmit period
func (p *CANPublisher) Cycle() time.Duration {
	return time.Duration(p.fd.CycleMS) * time.Millisecond
}

func (p *CANPublisher) Frame() *utils.FrameDef {
	return p.fd
}

func (p *CANPublisher) Sent() uint64 {
	return p.sent
}

func (p *CANPublisher) Publish(ctx context.Context, v wheel.Vector) error {
	frame, err := p.cmap.EncodeEinrideFrame(p.fd.Name, v.Signals())
	if err != nil {
		return fmt.Errorf("encode %s: %w", p.fd.Name, err)
	}
	if err := p.writer.WriteFrame(ctx, frame); err != nil {
		return fmt.Errorf("transmit %s: %w", p.fd.Name, err)
	}
	p.sent++
	return nil
}

// UDPPublisher sends each vector as VectorLen little-endian int32 values
type UDPPublisher struct {
	conn *net.UDPConn
	dst  *net.UDPAddr
}

// NewUDPPublisher sends to addr. Multicast destinations get the given TTL
// and loopback so local consumers see the datagrams too.
func NewUDPPublisher(addr string, ttl int) (*UDPPublisher, error) {
	dst, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}

	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return nil, fmt.Errorf("listen udp: %w", err)
	}

	if dst.IP.IsMulticast() {
		pc := ipv4.NewPacketConn(conn)
		if err := pc.SetMulticastTTL(ttl); err != nil {
			conn.Close()
			return nil, fmt.Errorf("multicast ttl: %w", err)
		}
		if err := pc.SetMulticastLoopback(true); err != nil {
			conn.Close()
			return nil, fmt.Errorf("multicast loopback: %w", err)
		}
	}

	return &UDPPublisher{conn: conn, dst: dst}, nil
}

func (p *UDPPublisher) Publish(ctx context.Context, v wheel.Vector) error {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		return err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = p.conn.SetWriteDeadline(deadline)
	}
	if _, err := p.conn.WriteToUDP(buf.Bytes(), p.dst); err != nil {
		return fmt.Errorf("udp send %s: %w", p.dst, err)
	}
	return nil
}

func (p *UDPPublisher) Close() error {
	return p.conn.Close()
}

// LogPublisher writes every vector at TRACE
type LogPublisher struct {
	log *utils.Logger
}

func (p LogPublisher) Publish(_ context.Context, v wheel.Vector) error {
	if !p.log.Enabled(utils.TRACE) {
		return nil
	}
	p.log.Trace("TX %s", v)
	return nil
}

// fanout publishes to every sink, in order, even when an earlier one fails
type fanout []wheel.Publisher

func (f fanout) Publish(ctx context.Context, v wheel.Vector) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
