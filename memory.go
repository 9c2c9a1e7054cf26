package main

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"descstats/internal/descriptive"
)

const samplingInterval = 10 * time.Millisecond

var rssBytesFunc = rssBytes

// measurePeakResidentMemory samples RSS while fn runs and returns fn's
// results together with the highest reading.
func measurePeakResidentMemory(fn func() (descriptive.Report, float64, error)) (descriptive.Report, float64, float64, error) {
	baseline := rssBytesFunc()
	peak := baseline

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(samplingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if current := rssBytesFunc(); current > peak {
					peak = current
				}
			case <-stop:
				return
			}
		}
	}()

	report, duration, err := fn()
	close(stop)
	wg.Wait()

	if peak == 0 {
		peak = baseline
	}
	return report, duration, peak, err
}

// rssBytes reads the resident set size from procfs and falls back to the
// memory the Go runtime obtained from the OS elsewhere.
func rssBytes() float64 {
	if runtime.GOOS == "linux" {
		if v := rssFromStatm("/proc/self/statm"); v > 0 {
			return v
		}
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return float64(ms.Sys)
}

func rssFromStatm(path string) float64 {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	return parseStatm(string(data), os.Getpagesize())
}

// parseStatm converts the resident page count (second field) to bytes.
func parseStatm(content string, pageSize int) float64 {
	fields := strings.Fields(content)
	if len(fields) < 2 {
		return 0
	}
	pages, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0
	}
	return float64(pages * uint64(pageSize))
}
