package loader

import (
	"sync"
	"sync/atomic"

	"github.com/penwyp/go-energy-report/internal/data/cache"
	"github.com/penwyp/go-energy-report/internal/util"
)

func missReasonText(r cache.CacheMissReason) string {
	switch r {
	case cache.MissReasonNone:
		return "none"
	case cache.MissReasonError:
		return "Cache read error"
	case cache.MissReasonInode:
		return "File inode changed"
	case cache.MissReasonSize:
		return "File size changed"
	case cache.MissReasonModTime:
		return "Modification time changed"
	case cache.MissReasonFingerprint:
		return "File fingerprint changed"
	case cache.MissReasonRunID:
		return "Run directory changed"
	case cache.MissReasonNotFound:
		return "Cache not found"
	case cache.MissReasonTimezone:
		return "Timezone changed"
	default:
		return "Unknown reason"
	}
}

// CacheStats counts cache outcomes while loading a variant.
type CacheStats struct {
	totalFiles  int64
	cacheHits   int64
	cacheMisses int64
	failures    int64
	mu          sync.Mutex
	missDetails []MissDetail
}

// MissDetail records why a file had to be parsed again.
type MissDetail struct {
	FilePath string
	Reason   cache.CacheMissReason
}

func NewCacheStats() *CacheStats {
	return &CacheStats{}
}

func (cs *CacheStats) IncrementTotal() {
	atomic.AddInt64(&cs.totalFiles, 1)
}

func (cs *CacheStats) IncrementHit() {
	atomic.AddInt64(&cs.cacheHits, 1)
}

func (cs *CacheStats) IncrementMiss(filePath string, reason cache.CacheMissReason) {
	atomic.AddInt64(&cs.cacheMisses, 1)

	cs.mu.Lock()
	cs.missDetails = append(cs.missDetails, MissDetail{FilePath: filePath, Reason: reason})
	cs.mu.Unlock()
}

func (cs *CacheStats) IncrementFailure() {
	atomic.AddInt64(&cs.failures, 1)
}

// GetStats returns the counters and the hit rate in percent.
func (cs *CacheStats) GetStats() (total, hits, misses, failures int64, hitRate float64) {
	total = atomic.LoadInt64(&cs.totalFiles)
	hits = atomic.LoadInt64(&cs.cacheHits)
	misses = atomic.LoadInt64(&cs.cacheMisses)
	failures = atomic.LoadInt64(&cs.failures)

	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	return
}

// MissReasons counts misses per reason.
func (cs *CacheStats) MissReasons() map[cache.CacheMissReason]int {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	counts := make(map[cache.CacheMissReason]int)
	for _, detail := range cs.missDetails {
		counts[detail.Reason]++
	}
	return counts
}

// LogFinal writes the totals and a per-reason breakdown of misses.
func (cs *CacheStats) LogFinal(variant string) {
	total, hits, misses, failures, hitRate := cs.GetStats()

	util.LogInfo("Cache statistics",
		util.Field{Key: "variant", Value: variant},
		util.Field{Key: "files", Value: total},
		util.Field{Key: "hits", Value: hits},
		util.Field{Key: "misses", Value: misses},
		util.Field{Key: "failures", Value: failures},
		util.Field{Key: "hit_rate", Value: util.FormatFloat(hitRate)},
	)

	if misses == 0 {
		return
	}
	for reason, count := range cs.MissReasons() {
		util.LogDebugf("  %s: %d files", missReasonText(reason), count)
	}
}
