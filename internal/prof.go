package internal

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strconv"
	"time"

	"github.com/fogtools/fogtest/internal/rand"
	"github.com/fogtools/fogtest/pkg/logging"

	"go.uber.org/zap"
)

// MinProfMB sets the heap thresholds, in MiB, above which profiles are dumped
type MinProfMB struct {
	Alloc   uint64
	HeapSys uint64
}

// MemPollParams tunes the background memory poller started by MemPoll
type MemPollParams struct {
	PollInterval time.Duration
	DestDir      string
	Thresholds   []MinProfMB
	Logger       *zap.Logger
}

func memPollDefaults(params MemPollParams) (MemPollParams, error) {
	if params.PollInterval == 0 {
		params.PollInterval = 5 * time.Second
	}
	if params.DestDir == "" {
		params.DestDir = "."
	}
	if params.Logger == nil {
		logger, err := logging.GetLogger(logging.LogLevelInfo)
		if err != nil {
			return MemPollParams{}, err
		}
		params.Logger = logger
	}
	return params, nil
}

// MemPoll watches memory usage in the background for the lifetime of the
// process. It logs heap growth, and dumps heap and allocs profiles the first
// time each configured threshold is crossed.
func MemPoll(params MemPollParams) error {
	params, err := memPollDefaults(params)
	if err != nil {
		return err
	}
	go memPollLoop(params)
	return nil
}

func memPollLoop(params MemPollParams) {
	mstats := new(runtime.MemStats)
	var maxHeapThusFar uint64
	prefix := "mem_" + rand.LetterString(3)
	for {
		runtime.ReadMemStats(mstats)
		if mstats.HeapSys > maxHeapThusFar {
			maxHeapThusFar = mstats.HeapSys
			params.Logger.Info("grew heap",
				zap.Uint64("alloc_mb", mstats.Alloc/1024/1024),
				zap.Uint64("heap_sys_mb", mstats.HeapSys/1024/1024),
				zap.Int("goroutines", runtime.NumGoroutine()),
			)
		}
		for _, minMB := range params.Thresholds {
			if err := maybeMemProf(params.DestDir, prefix, mstats, minMB); err != nil {
				params.Logger.Error("memory profiling error", zap.Error(err))
			}
		}
		time.Sleep(params.PollInterval)
	}
}

func maybeMemProf(destDir, prefix string, mstats *runtime.MemStats, minMB MinProfMB) error {
	if mstats.Alloc/1024/1024 < minMB.Alloc || mstats.HeapSys/1024/1024 < minMB.HeapSys {
		return nil
	}
	basePath := filepath.Join(destDir,
		prefix+"-"+strconv.Itoa(int(minMB.Alloc))+"-"+strconv.Itoa(int(minMB.HeapSys)))
	if err := writeProfIfNExist(basePath+".mem.prof", "heap"); err != nil {
		return err
	}
	return writeProfIfNExist(basePath+".alloc.prof", "allocs")
}

// writeProfIfNExist dumps a named runtime profile once: an existing file is
// left untouched so the first crossing of a threshold is what gets captured
func writeProfIfNExist(path string, name string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fprof, err := os.Create(path)
		if err != nil {
			return err
		}
		defer fprof.Close()
		return pprof.Lookup(name).WriteTo(fprof, 0)
	}
	return nil
}
