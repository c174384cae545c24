//go:build !linux && !darwin

package meminfo

func sampleRusage() (Snapshot, bool) {
	return Snapshot{}, false
}
