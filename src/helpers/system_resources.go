package helpers

const (
	minMemoryLimitMB = 256
	memoryLimitShare = 0.75
)

// SystemMemoryMB reports total physical memory, or 0 when it cannot be read.
func SystemMemoryMB() int {
	return int(systemMemoryBytes() >> 20)
}

// SoftMemoryLimitBytes is the Go runtime memory target for this host: 75% of
// physical RAM, never below 256MB. It returns 0 when RAM is unknown.
func SoftMemoryLimitBytes() int64 {
	totalMB := SystemMemoryMB()
	if totalMB == 0 {
		return 0
	}

	limit := int(float64(totalMB) * memoryLimitShare)
	if limit < minMemoryLimitMB {
		limit = min(totalMB, minMemoryLimitMB)
	}
	return int64(limit) << 20
}
