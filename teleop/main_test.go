package main

import (
	"bytes"
	"encoding/binary"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pimpmobile-teleop/wheel"
)

const replayJSON = `[
  {"at_ms": 0, "event": {"kind": "axis", "code": 0, "value": 65535}},
  {"at_ms": 5, "event": {"kind": "button", "code": 293, "value": 1}}
]`

func TestRun_ReplayToUDP(t *testing.T) {
	dir := t.TempDir()
	replay := filepath.Join(dir, "drive.json")
	require.NoError(t, os.WriteFile(replay, []byte(replayJSON), 0o644))
	logFile := filepath.Join(dir, "teleop.log")

	listener, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer listener.Close()

	code := run([]string{
		"-iface=",
		"-udp", listener.LocalAddr().String(),
		"-replay", replay,
		"-keepalive=false",
		"-log-file", logFile,
	})
	require.Equal(t, 0, code)

	require.NoError(t, listener.SetReadDeadline(time.Now().Add(2*time.Second)))
	var last wheel.Vector
	buf := make([]byte, 128)
	for i := 0; i < 2; i++ {
		n, _, err := listener.ReadFromUDP(buf)
		require.NoError(t, err)
		require.NoError(t, binary.Read(bytes.NewReader(buf[:n]), binary.LittleEndian, &last))
	}
	assert.EqualValues(t, 255, last[wheel.IdxSteering])
	assert.EqualValues(t, 1, last[wheel.IdxGear])

	out, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Stopped. snapshots_published=2")
}

func TestRun_StartupFailureReturnsOne(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "teleop.log")

	code := run([]string{
		"-iface=",
		"-udp", "127.0.0.1:9",
		"-replay", filepath.Join(dir, "missing.json"),
		"-log-file", logFile,
	})
	assert.Equal(t, 1, code)

	out, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Startup failed")
}

func TestRun_InvalidConfiguration(t *testing.T) {
	assert.Equal(t, 2, run([]string{"-iface=", "-udp="}))
	assert.Equal(t, 2, run([]string{"-no-such-flag"}))
}
