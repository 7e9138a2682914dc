package helpers

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSoftMemoryLimitTracksSystemMemory(t *testing.T) {
	total := SystemMemoryMB()
	limit := SoftMemoryLimitBytes()

	if total == 0 {
		assert.Zero(t, limit)
		return
	}
	assert.LessOrEqual(t, limit, int64(total)<<20)
	assert.Greater(t, limit, int64(0))
}

func TestSystemMemoryKnownOnLinux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("reads /proc/meminfo")
	}
	assert.Greater(t, SystemMemoryMB(), 0)
}
