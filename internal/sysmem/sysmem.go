// Package sysmem detects the free physical memory available at process
// startup, the same way a long-running batch importer probes headroom
// before committing to a buffer size: read /proc/meminfo on Linux, shell
// out to sysctl on Darwin, and fall back to a conservative default when
// neither source is available (containers without /proc, or anything else).
package sysmem

import (
	"bufio"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// defaultFreeBytes is the assumption used when the platform offers no way
// to read free memory. It is deliberately small: an indexer that wrongly
// assumes abundant memory fails by spilling too rarely.
const defaultFreeBytes = 1 << 30 // 1 GiB

// FreeBytes returns an estimate of currently free physical RAM in bytes.
func FreeBytes() uint64 {
	if b, ok := freeBytesLinux(); ok {
		return b
	}
	if b, ok := freeBytesDarwin(); ok {
		return b
	}
	return defaultFreeBytes
}

func freeBytesLinux() (uint64, bool) {
	if runtime.GOOS != "linux" {
		return 0, false
	}
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemAvailable:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0, false
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0, false
		}
		return kb * 1024, true
	}
	return 0, false
}

func freeBytesDarwin() (uint64, bool) {
	if runtime.GOOS != "darwin" {
		return 0, false
	}
	out, err := exec.Command("sysctl", "-n", "hw.memsize").Output()
	if err != nil {
		return 0, false
	}
	total, err := strconv.ParseUint(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return 0, false
	}
	// sysctl only exposes total installed memory, not the free portion;
	// treat half of it as available headroom.
	return total / 2, true
}

// MemoryThreshold returns the minimum of userSetting (if nonzero) and 70% of
// currently free physical RAM. A zero userSetting means no user cap was
// supplied, so the free-RAM figure alone applies.
func MemoryThreshold(userSetting uint64) uint64 {
	free := uint64(float64(FreeBytes()) * 0.7)
	if userSetting == 0 {
		return free
	}
	if userSetting < free {
		return userSetting
	}
	return free
}
