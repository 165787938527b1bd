//go:build linux

package system

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// ChipInfo describes the board the program runs on.
type ChipInfo struct {
	Model string
	Cores int
	WiFi  bool
	BT    bool
	BLE   bool
	// Board revision as printed on the PCB, e.g. 1.2
	RevisionMajor int
	RevisionMinor int
	// True if the root filesystem lives on an SD card or eMMC
	EmbeddedStorage bool
}

// Probe reads board information from procfs and sysfs. The fields
// are replaceable so the banner can be tested without the real files.
type Probe struct {
	FS          fs.FS
	StorageSize func() (uint64, error)
	FreeMemory  func() (uint64, error)
}

func NewProbe() *Probe {
	return &Probe{
		FS:          os.DirFS("/"),
		StorageSize: func() (uint64, error) { return statfsTotal("/") },
		FreeMemory:  freeMemory,
	}
}

func statfsTotal(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	return st.Blocks * uint64(st.Bsize), nil
}

func freeMemory() (uint64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, fmt.Errorf("sysinfo: %w", err)
	}
	return uint64(info.Freeram) * uint64(info.Unit), nil
}

// ChipInfo collects everything that can't fail. Missing files just
// leave the corresponding field at its fallback.
func (p *Probe) ChipInfo() ChipInfo {
	info := ChipInfo{
		Model: runtime.GOARCH,
		Cores: runtime.NumCPU(),
	}
	if model, err := fs.ReadFile(p.FS, "proc/device-tree/model"); err == nil {
		if m := strings.TrimSpace(string(bytes.TrimRight(model, "\x00"))); m != "" {
			info.Model = m
		}
	}
	info.WiFi = p.exists("sys/class/net/wlan0")
	// Every Raspberry Pi bluetooth controller is dual mode.
	info.BT = p.exists("sys/class/bluetooth/hci0")
	info.BLE = info.BT
	if major, minor, err := p.boardRevision(); err == nil {
		info.RevisionMajor, info.RevisionMinor = major, minor
	}
	info.EmbeddedStorage = p.rootOnMMC()
	return info
}

func (p *Probe) exists(name string) bool {
	_, err := fs.Stat(p.FS, name)
	return err == nil
}

var (
	errNoRevision       = errors.New("no revision in cpuinfo")
	errOldStyleRevision = errors.New("old style revision code carries no PCB revision")
)

const (
	newStyleRevisionFlag = 1 << 23
	revisionMask         = 0xf
)

// boardRevision decodes the PCB revision from the "Revision" line of
// /proc/cpuinfo. New style codes keep it in the lowest nibble and the
// boards label it 1.<nibble>.
func (p *Probe) boardRevision() (int, int, error) {
	f, err := p.FS.Open("proc/cpuinfo")
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, found := strings.Cut(scanner.Text(), ":")
		if !found || strings.TrimSpace(key) != "Revision" {
			continue
		}
		code, err := strconv.ParseUint(strings.TrimSpace(value), 16, 32)
		if err != nil {
			return 0, 0, fmt.Errorf("bad revision %q: %w", value, err)
		}
		if code&newStyleRevisionFlag == 0 {
			return 0, 0, fmt.Errorf("revision %x: %w", code, errOldStyleRevision)
		}
		return 1, int(code & revisionMask), nil
	}
	if err := scanner.Err(); err != nil {
		return 0, 0, err
	}
	return 0, 0, errNoRevision
}

func (p *Probe) rootOnMMC() bool {
	mounts, err := fs.ReadFile(p.FS, "proc/mounts")
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(mounts), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == "/" {
			return strings.HasPrefix(fields[0], "/dev/mmcblk")
		}
	}
	return false
}

// PrintBanner writes the startup greeting and the board diagnostics to
// w. The storage size query is the only step that can fail, in that
// case the banner ends early and the error is returned.
func PrintBanner(w io.Writer, p *Probe) error {
	info := p.ChipInfo()

	fmt.Fprintf(w, "Hello world!\n")
	fmt.Fprintf(w, "\nHey, I am ledfade and I am here on %s. Wait to see more from me!\n\n", info.Model)

	fmt.Fprintf(w, "This is %s chip with %d CPU core(s), WiFi%s%s, ",
		info.Model,
		info.Cores,
		flag(info.BT, "/BT"),
		flag(info.BLE, "/BLE"))
	fmt.Fprintf(w, "silicon revision v%d.%d, ", info.RevisionMajor, info.RevisionMinor)

	size, err := p.StorageSize()
	if err != nil {
		fmt.Fprintf(w, "Get flash size failed\n")
		return fmt.Errorf("get storage size: %w", err)
	}
	fmt.Fprintf(w, "%dMB %s flash\n", size/(1024*1024), flag(info.EmbeddedStorage, "embedded", "external"))

	if free, err := p.FreeMemory(); err == nil {
		fmt.Fprintf(w, "Minimum free heap size: %d bytes\n", free)
	}
	return nil
}

// flag returns ifSet when b is true, the optional second value or ""
// otherwise.
func flag(b bool, ifSet string, otherwise ...string) string {
	if b {
		return ifSet
	}
	if len(otherwise) > 0 {
		return otherwise[0]
	}
	return ""
}
