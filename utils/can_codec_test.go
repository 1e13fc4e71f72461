package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMap = `direction,frame_id,frame_name,cycle_ms,dlc,signal_name,start_bit,bit_length,endianness,signed,factor,offset,min,max,default,unit,comment
tx,0x120,CMD,100,8,throttle,0,8,little,false,1,0,0,255,0,raw,
tx,0x120,CMD,100,8,steering,8,10,little,true,1,0,-255,255,0,raw,
tx,0x120,CMD,100,8,flag,18,1,little,false,1,0,0,1,0,bool,
tx,0x120,CMD,100,8,percent,20,7,little,false,1,0,0,100,100,pct,
tx,0x120,CMD,100,8,scaled,32,16,little,true,0.01,0,-100,100,0,mps,
rx,0x300,STATE,20,2,speed,0,16,little,false,0.1,0,0,0,0,kph,
`

func parseTestMap(t *testing.T) *CANMap {
	t.Helper()
	m, err := ParseCANMap(strings.NewReader(testMap))
	require.NoError(t, err)
	return m
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	m := parseTestMap(t)

	in := map[string]float64{
		"throttle": 200,
		"steering": -255,
		"flag":     1,
		"percent":  42,
		"scaled":   -12.34,
	}

	f, err := m.EncodeEinrideFrame("CMD", in)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x120), f.ID)
	assert.Equal(t, uint8(8), f.Length)

	out, err := m.DecodeEinrideFrame(f)
	require.NoError(t, err)
	assert.Equal(t, 200.0, out["throttle"])
	assert.Equal(t, -255.0, out["steering"])
	assert.Equal(t, 1.0, out["flag"])
	assert.Equal(t, 42.0, out["percent"])
	assert.InDelta(t, -12.34, out["scaled"], 1e-9)
}

func TestEncode_SignedLayout(t *testing.T) {
	m := parseTestMap(t)

	payload, _, err := m.EncodeFrame("CMD", map[string]float64{"steering": -1, "percent": 0})
	require.NoError(t, err)

	// -1 in 10 bits is 0x3FF starting at bit 8
	assert.Equal(t, byte(0xFF), payload[1])
	assert.Equal(t, byte(0x03), payload[2]&0x03)
}

func TestEncode_DefaultsAndClamping(t *testing.T) {
	m := parseTestMap(t)

	f, err := m.EncodeEinrideFrame("CMD", map[string]float64{"steering": 999, "throttle": -4})
	require.NoError(t, err)

	out, err := m.DecodeEinrideFrame(f)
	require.NoError(t, err)
	assert.Equal(t, 255.0, out["steering"])
	assert.Equal(t, 0.0, out["throttle"])
	assert.Equal(t, 100.0, out["percent"], "missing signal takes its default")
}

func TestEncode_NoDeclaredRangeNotClamped(t *testing.T) {
	m := parseTestMap(t)

	payload, id, err := m.EncodeFrame("STATE", map[string]float64{"speed": 123.4})
	require.NoError(t, err)
	assert.Equal(t, uint32(0x300), id)

	out, err := m.DecodeFrame(id, payload)
	require.NoError(t, err)
	assert.InDelta(t, 123.4, out["speed"], 1e-9)
}

func TestCodec_Errors(t *testing.T) {
	m := parseTestMap(t)

	_, _, err := m.EncodeFrame("NOPE", nil)
	assert.ErrorContains(t, err, "unknown frame")

	_, err = m.DecodeFrame(0x999, make([]byte, 8))
	assert.ErrorContains(t, err, "unknown frame id")

	_, err = m.DecodeFrame(0x120, make([]byte, 3))
	assert.ErrorContains(t, err, "expects DLC 8")
}

func TestSignExtend(t *testing.T) {
	assert.Equal(t, int64(-1), signExtend(0x3FF, 10, true))
	assert.Equal(t, int64(511), signExtend(0x1FF, 10, true))
	assert.Equal(t, int64(-512), signExtend(0x200, 10, true))
	assert.Equal(t, int64(0x3FF), signExtend(0x3FF, 10, false))
	assert.Equal(t, uint64(0x3FF), truncate(-1, 10))
}

func TestClampRaw(t *testing.T) {
	assert.Equal(t, int64(127), clampRaw(300, 8, true))
	assert.Equal(t, int64(-128), clampRaw(-300, 8, true))
	assert.Equal(t, int64(0), clampRaw(-1, 7, false))
	assert.Equal(t, int64(127), clampRaw(1000, 7, false))
}
