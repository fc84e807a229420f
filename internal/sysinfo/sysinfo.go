// Package sysinfo reports host and storage figures for the dev server health
// endpoint.
package sysinfo

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

const meminfoPath = "/proc/meminfo"

// Metrics is the health payload
type Metrics struct {
	CPUCount      int     `json:"cpu_count"`
	Goroutines    int     `json:"goroutines"`
	MemoryTotalGB float64 `json:"memory_total_gb,omitempty"`
	MemoryFreeGB  float64 `json:"memory_free_gb,omitempty"`
	UploadFiles   int     `json:"upload_files"`
	UploadBytes   int64   `json:"upload_bytes"`
}

// GetMetrics collects metrics for the upload directory. Host memory is only
// available where /proc/meminfo exists and is left zero elsewhere.
func GetMetrics(uploadDir string) (Metrics, error) {
	metrics := Metrics{
		CPUCount:   runtime.NumCPU(),
		Goroutines: runtime.NumGoroutine(),
	}

	if file, err := os.Open(meminfoPath); err == nil {
		defer file.Close()
		if err := readMemoryInfo(file, &metrics); err != nil {
			return metrics, err
		}
	}

	files, size, err := DirUsage(uploadDir)
	if err != nil {
		return metrics, fmt.Errorf("failed to measure uploads: %w", err)
	}
	metrics.UploadFiles = files
	metrics.UploadBytes = size

	return metrics, nil
}

// readMemoryInfo parses meminfo-formatted text
func readMemoryInfo(r io.Reader, metrics *Metrics) error {
	var memTotal, memAvailable float64
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}

		switch {
		case strings.HasPrefix(line, "MemTotal:"):
			memTotal = value / (1024 * 1024) // KB to GB
		case strings.HasPrefix(line, "MemAvailable:"):
			memAvailable = value / (1024 * 1024) // KB to GB
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading %s: %w", meminfoPath, err)
	}

	metrics.MemoryTotalGB = memTotal
	metrics.MemoryFreeGB = memAvailable
	return nil
}

// DirUsage counts regular files under dir and their total size. A missing
// directory is empty.
func DirUsage(dir string) (int, int64, error) {
	var files int
	var size int64

	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return fs.SkipAll
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files++
		size += info.Size()
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	return files, size, nil
}
