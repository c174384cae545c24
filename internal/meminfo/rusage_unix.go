//go:build linux || darwin

package meminfo

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// sampleRusage reads the resident high-water mark via getrusage. Virtual size
// is not available through this interface. Maxrss is reported in KiB on Linux
// and bytes on Darwin.
func sampleRusage() (Snapshot, bool) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return Snapshot{}, false
	}

	rssKB := float64(ru.Maxrss)
	if runtime.GOOS == "darwin" {
		rssKB /= 1024
	}
	if rssKB <= 0 {
		return Snapshot{}, false
	}

	return Snapshot{RSSMB: roundMB(rssKB / 1024)}, true
}
