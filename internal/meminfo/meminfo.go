// Package meminfo reports best-effort process memory usage. It degrades
// through a chain of fallbacks and never returns an error; when every layer
// fails the snapshot is zeroed.
package meminfo

import (
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// Snapshot holds resident and virtual memory sizes in MB, rounded to two
// decimals.
type Snapshot struct {
	RSSMB float64 `json:"rss_mb"`
	VMSMB float64 `json:"vms_mb"`
}

// Sample returns the current process memory usage. Fallback order: gopsutil,
// getrusage, /proc/self/status, zeroed defaults.
func Sample() Snapshot {
	if snap, ok := sampleGopsutil(); ok {
		return snap
	}
	if snap, ok := sampleRusage(); ok {
		return snap
	}
	if snap, ok := sampleProcStatus(); ok {
		return snap
	}
	return Snapshot{}
}

func sampleGopsutil() (Snapshot, bool) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return Snapshot{}, false
	}
	mi, err := p.MemoryInfo()
	if err != nil || mi == nil {
		return Snapshot{}, false
	}
	return Snapshot{
		RSSMB: roundMB(float64(mi.RSS) / (1024 * 1024)),
		VMSMB: roundMB(float64(mi.VMS) / (1024 * 1024)),
	}, true
}

// sampleProcStatus parses VmRSS/VmSize from the Linux per-process pseudo-file.
func sampleProcStatus() (Snapshot, bool) {
	data, err := os.ReadFile("/proc/self/status")
	if err != nil {
		return Snapshot{}, false
	}

	var rssKB, vmsKB float64
	for _, line := range strings.Split(string(data), "\n") {
		switch {
		case strings.HasPrefix(line, "VmRSS:"):
			rssKB = parseStatusKB(line)
		case strings.HasPrefix(line, "VmSize:"):
			vmsKB = parseStatusKB(line)
		}
	}
	if rssKB == 0 && vmsKB == 0 {
		return Snapshot{}, false
	}
	return Snapshot{
		RSSMB: roundMB(rssKB / 1024),
		VMSMB: roundMB(vmsKB / 1024),
	}, true
}

func parseStatusKB(line string) float64 {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0
	}
	v, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0
	}
	return v
}

func roundMB(v float64) float64 {
	return math.Round(v*100) / 100
}
