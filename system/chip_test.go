//go:build linux

package system

import (
	"bytes"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cpuinfo = `processor	: 0
BogoMIPS	: 108.00
Features	: fp asimd evtstrm crc32 cpuid

Hardware	: BCM2835
Revision	: a02082
Serial		: 00000000deadbeef
Model		: Raspberry Pi 3 Model B Rev 1.2
`

const mounts = `/dev/mmcblk0p2 / ext4 rw,noatime 0 0
/dev/mmcblk0p1 /boot vfat rw,relatime 0 0
proc /proc proc rw,relatime 0 0
`

func newTestProbe() *Probe {
	return &Probe{
		FS: fstest.MapFS{
			"proc/device-tree/model":   {Data: []byte("Raspberry Pi 3 Model B Rev 1.2\x00")},
			"proc/cpuinfo":             {Data: []byte(cpuinfo)},
			"proc/mounts":              {Data: []byte(mounts)},
			"sys/class/net/wlan0":      {Data: []byte{}},
			"sys/class/bluetooth/hci0": {Data: []byte{}},
		},
		StorageSize: func() (uint64, error) { return 31 * 1024 * 1024 * 1024, nil },
		FreeMemory:  func() (uint64, error) { return 123456, nil },
	}
}

func TestProbe_ChipInfo(t *testing.T) {
	info := newTestProbe().ChipInfo()

	assert.Equal(t, "Raspberry Pi 3 Model B Rev 1.2", info.Model)
	assert.Greater(t, info.Cores, 0)
	assert.True(t, info.WiFi)
	assert.True(t, info.BT)
	assert.True(t, info.BLE)
	assert.Equal(t, 1, info.RevisionMajor)
	assert.Equal(t, 2, info.RevisionMinor)
	assert.True(t, info.EmbeddedStorage)
}

func TestProbe_ChipInfoFallbacks(t *testing.T) {
	p := &Probe{FS: fstest.MapFS{
		"proc/mounts": {Data: []byte("/dev/sda2 / ext4 rw 0 0\n")},
	}}
	info := p.ChipInfo()

	assert.NotEmpty(t, info.Model, "model falls back to the architecture")
	assert.False(t, info.WiFi)
	assert.False(t, info.BT)
	assert.False(t, info.BLE)
	assert.Equal(t, 0, info.RevisionMajor)
	assert.Equal(t, 0, info.RevisionMinor)
	assert.False(t, info.EmbeddedStorage)
}

func TestProbe_BoardRevision(t *testing.T) {
	p := &Probe{FS: fstest.MapFS{"proc/cpuinfo": {Data: []byte("Revision : zz\n")}}}
	_, _, err := p.boardRevision()
	assert.Error(t, err)

	p = &Probe{FS: fstest.MapFS{"proc/cpuinfo": {Data: []byte("processor : 0\n")}}}
	_, _, err = p.boardRevision()
	assert.ErrorIs(t, err, errNoRevision)

	// Pi 1 Model B+ uses an old style code
	p = &Probe{FS: fstest.MapFS{"proc/cpuinfo": {Data: []byte("Revision : 0010\n")}}}
	_, _, err = p.boardRevision()
	assert.ErrorIs(t, err, errOldStyleRevision)

	// Pi 4 Model B 4GB, revision 1.5
	p = &Probe{FS: fstest.MapFS{"proc/cpuinfo": {Data: []byte("Revision\t: c03115\n")}}}
	major, minor, err := p.boardRevision()
	require.NoError(t, err)
	assert.Equal(t, 1, major)
	assert.Equal(t, 5, minor)
}

func TestPrintBanner(t *testing.T) {
	var out bytes.Buffer
	p := newTestProbe()
	delete(p.FS.(fstest.MapFS), "sys/class/bluetooth/hci0")

	require.NoError(t, PrintBanner(&out, p))

	text := out.String()
	assert.Contains(t, text, "Hello world!\n")
	assert.Contains(t, text, "Hey, I am ledfade and I am here on Raspberry Pi 3 Model B Rev 1.2.")
	assert.Contains(t, text, "CPU core(s), WiFi, silicon revision v1.2, 31744MB embedded flash\n")
	assert.Contains(t, text, "Minimum free heap size: 123456 bytes\n")
}

func TestPrintBanner_WithBluetooth(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, PrintBanner(&out, newTestProbe()))
	assert.Contains(t, out.String(), "WiFi/BT/BLE, ")
}

func TestPrintBanner_StorageFailure(t *testing.T) {
	var out bytes.Buffer
	p := newTestProbe()
	p.StorageSize = func() (uint64, error) { return 0, errors.New("boom") }

	err := PrintBanner(&out, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get storage size")
	assert.True(t, bytes.HasSuffix(out.Bytes(), []byte("Get flash size failed\n")))
	assert.NotContains(t, out.String(), "Minimum free heap size")
}

func TestPrintBanner_NoFreeMemory(t *testing.T) {
	var out bytes.Buffer
	p := newTestProbe()
	p.FreeMemory = func() (uint64, error) { return 0, errors.New("unsupported") }

	require.NoError(t, PrintBanner(&out, p))
	assert.NotContains(t, out.String(), "Minimum free heap size")
}

func TestFlag(t *testing.T) {
	assert.Equal(t, "/BT", flag(true, "/BT"))
	assert.Equal(t, "", flag(false, "/BT"))
	assert.Equal(t, "external", flag(false, "embedded", "external"))
}
