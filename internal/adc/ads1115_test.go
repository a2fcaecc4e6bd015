package adc

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeADS emulates the ADS1115 register file.
type fakeADS struct {
	config     uint16
	conversion int16
	busyPolls  int // status reads that report busy before ready
	writes     [][]byte
	fail       error
}

func (f *fakeADS) Tx(addr uint16, w, r []byte) error {
	if f.fail != nil {
		return f.fail
	}
	if len(w) == 3 {
		f.writes = append(f.writes, append([]byte(nil), w...))
		f.config = uint16(w[1])<<8 | uint16(w[2])
		return nil
	}
	switch w[0] {
	case regConfig:
		status := f.config &^ cfgOSReady
		if f.busyPolls > 0 {
			f.busyPolls--
		} else {
			status |= cfgOSReady
		}
		r[0], r[1] = byte(status>>8), byte(status)
	case regConversion:
		v := uint16(f.conversion)
		r[0], r[1] = byte(v>>8), byte(v)
	}
	return nil
}

func noSleep(time.Duration) {}

func TestADS1115Sample(t *testing.T) {
	bus := &fakeADS{conversion: 200 << 7, busyPolls: 2}
	d, err := NewADS1115(bus, Config{}, noSleep)
	require.NoError(t, err)

	s, err := d.Sample()
	require.NoError(t, err)
	assert.Equal(t, uint8(200), s)
	require.Len(t, bus.writes, 1)
	assert.Equal(t, []byte{regConfig, 0xC3, 0x83}, bus.writes[0])
}

func TestADS1115ChannelSelect(t *testing.T) {
	bus := &fakeADS{}
	d, err := NewADS1115(bus, Config{Channel: 2}, noSleep)
	require.NoError(t, err)

	_, err = d.Read()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xE383), bus.config, "AIN2 vs GND is mux 110")
}

func TestADS1115Timeout(t *testing.T) {
	bus := &fakeADS{busyPolls: 1000}
	var slept time.Duration
	d, err := NewADS1115(bus, Config{PollInterval: time.Millisecond, Timeout: 5 * time.Millisecond}, func(d time.Duration) { slept += d })
	require.NoError(t, err)

	_, err = d.Sample()
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 5*time.Millisecond, slept)
}

func TestADS1115BusError(t *testing.T) {
	d, err := NewADS1115(&fakeADS{fail: errors.New("nack")}, Config{}, noSleep)
	require.NoError(t, err)
	_, err = d.Sample()
	assert.Error(t, err)
}

func TestADS1115RejectsChannel(t *testing.T) {
	_, err := NewADS1115(&fakeADS{}, Config{Channel: 4}, nil)
	assert.Error(t, err)
}

func TestScale(t *testing.T) {
	tests := []struct {
		raw  int16
		want uint8
	}{
		{-100, 0},
		{0, 0},
		{127, 0},
		{128, 1},
		{180 << 7, 180},
		{32767, 255},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Scale(tt.raw), "raw %d", tt.raw)
	}
}

func TestFakeSamplerRepeatsLast(t *testing.T) {
	f := NewFakeSampler(10, 20)
	for _, want := range []uint8{10, 20, 20} {
		got, err := f.Sample()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 3, f.Calls)
}

func TestFakeSamplerErrors(t *testing.T) {
	_, err := NewFakeSampler().Sample()
	assert.Error(t, err)

	f := NewFakeSampler(1)
	f.SetError(errors.New("stuck"))
	_, err = f.Sample()
	assert.EqualError(t, err, "stuck")
}
