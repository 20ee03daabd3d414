package common

import (
	"os"
	"runtime"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

// Runtime profiles keyed by CPU count
const (
	// 1-2 vCPU (dev)
	SmallServerGOGC     = 300
	SmallServerMemLimit = 1.5 * 1024 * 1024 * 1024

	// 4-8 vCPU
	MediumServerGOGC     = 500
	MediumServerMemLimit = 4 * 1024 * 1024 * 1024

	// 16+ vCPU
	LargeServerGOGC     = 800
	LargeServerMemLimit = 8 * 1024 * 1024 * 1024
)

func detectServerProfile() (gogc int, memLimit int64, maxProcs int) {
	totalCPU := runtime.NumCPU()

	switch {
	case totalCPU <= 2:
		return SmallServerGOGC, int64(SmallServerMemLimit), 1
	case totalCPU <= 8:
		return MediumServerGOGC, int64(MediumServerMemLimit), totalCPU
	default:
		return LargeServerGOGC, int64(LargeServerMemLimit), totalCPU
	}
}

// InitRuntimeForHFT tunes GC and scheduler settings for a quote server that
// allocates many short-lived big integers per request. GOGC, GOMAXPROCS and
// GOMEMLIMIT from the environment take precedence.
func InitRuntimeForHFT() {
	defaultGOGC, defaultMemLimit, defaultMaxProcs := detectServerProfile()

	// A higher GOGC keeps the uint256 scratch pool warm between requests.
	if gcPercent := os.Getenv("GOGC"); gcPercent == "" {
		debug.SetGCPercent(defaultGOGC)
		log.Info().
			Int("GOGC", defaultGOGC).
			Msg("[runtime] Set GOGC")
	}

	if maxProcs := os.Getenv("GOMAXPROCS"); maxProcs == "" {
		runtime.GOMAXPROCS(defaultMaxProcs)
		log.Info().
			Int("GOMAXPROCS", defaultMaxProcs).
			Int("total_cpu", runtime.NumCPU()).
			Msg("[runtime] Set GOMAXPROCS")
	}

	if memLimit := os.Getenv("GOMEMLIMIT"); memLimit == "" {
		debug.SetMemoryLimit(defaultMemLimit)
		log.Info().
			Int64("GOMEMLIMIT_bytes", defaultMemLimit).
			Float64("GOMEMLIMIT_GB", float64(defaultMemLimit)/1024/1024/1024).
			Msg("[runtime] Set memory limit")
	}

	logRuntimeSettings()
}

func logRuntimeSettings() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	log.Info().
		Int("num_cpu", runtime.NumCPU()).
		Int("gomaxprocs", runtime.GOMAXPROCS(0)).
		Uint64("heap_alloc_mb", memStats.HeapAlloc/1024/1024).
		Uint64("heap_sys_mb", memStats.HeapSys/1024/1024).
		Str("go_version", runtime.Version()).
		Msg("[runtime] Current runtime settings")
}
