package sysinfo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMemoryInfo(t *testing.T) {
	input := `MemTotal:        8388608 kB
MemFree:          524288 kB
MemAvailable:    4194304 kB
garbage
`
	var m Metrics
	require.NoError(t, readMemoryInfo(strings.NewReader(input), &m))
	assert.InDelta(t, 8.0, m.MemoryTotalGB, 0.001)
	assert.InDelta(t, 4.0, m.MemoryFreeGB, 0.001)
}

func TestDirUsage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), []byte("12345"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "b.jpg"), []byte("123"), 0o644))

	files, size, err := DirUsage(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, files)
	assert.Equal(t, int64(8), size)
}

func TestDirUsage_Missing(t *testing.T) {
	files, size, err := DirUsage(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Zero(t, files)
	assert.Zero(t, size)
}

func TestGetMetrics(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), []byte("xy"), 0o644))

	m, err := GetMetrics(dir)
	require.NoError(t, err)
	assert.Positive(t, m.CPUCount)
	assert.Equal(t, 1, m.UploadFiles)
	assert.Equal(t, int64(2), m.UploadBytes)
}
