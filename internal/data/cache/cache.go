package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-energy-report/internal/core/model"
	"github.com/penwyp/go-energy-report/internal/util"
)

type CacheMissReason int

const (
	MissReasonNone CacheMissReason = iota
	MissReasonError
	MissReasonInode
	MissReasonSize
	MissReasonModTime
	MissReasonFingerprint
	MissReasonRunID
	MissReasonNotFound
	MissReasonTimezone
)

func (r CacheMissReason) String() string {
	switch r {
	case MissReasonNone:
		return "none"
	case MissReasonError:
		return "error"
	case MissReasonInode:
		return "inode"
	case MissReasonSize:
		return "size"
	case MissReasonModTime:
		return "modtime"
	case MissReasonFingerprint:
		return "fingerprint"
	case MissReasonRunID:
		return "run_id"
	case MissReasonNotFound:
		return "not_found"
	case MissReasonTimezone:
		return "timezone"
	default:
		return "unknown"
	}
}

// Entry is the cached parse of one measurement file.
type Entry struct {
	FilePath           string              `json:"filePath"`
	RunID              int                 `json:"runId"`
	// Timezone is the zone naive timestamps were read in.
	Timezone           string              `json:"timezone"`
	Rows               []model.Measurement `json:"rows"`
	LastModified       int64               `json:"lastModified"`
	FileSize           int64               `json:"fileSize"`
	Inode              uint64              `json:"inode"`
	ContentFingerprint string              `json:"contentFingerprint"`
}

type CacheResult struct {
	Entry      *Entry
	Found      bool
	MissReason CacheMissReason
}

// Cache stores parsed measurement rows keyed by source file path.
type Cache interface {
	Get(path string, runID int, zone string) CacheResult
	Set(path string, runID int, zone string, rows []model.Measurement) error
	Clear() error
}

// FileCache keeps entries as JSON files under baseDir with an in-memory layer.
type FileCache struct {
	baseDir     string
	mu          sync.RWMutex
	memoryCache map[string]*Entry
}

func NewFileCache(baseDir string) (*FileCache, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &FileCache{
		baseDir:     baseDir,
		memoryCache: make(map[string]*Entry),
	}, nil
}

func (c *FileCache) entryPath(path string) string {
	return filepath.Join(c.baseDir, util.PathKey(path)+".json")
}

// Get returns the cached rows of path when the file is unchanged since it was
// cached, still belongs to runID and was parsed in zone.
func (c *FileCache) Get(path string, runID int, zone string) CacheResult {
	c.mu.RLock()
	entry, ok := c.memoryCache[path]
	c.mu.RUnlock()

	if !ok {
		var reason CacheMissReason
		entry, reason = c.readEntry(path)
		if entry == nil {
			return CacheResult{MissReason: reason}
		}
	}

	if reason := validate(entry, runID, zone); reason != MissReasonNone {
		c.mu.Lock()
		delete(c.memoryCache, path)
		c.mu.Unlock()
		return CacheResult{MissReason: reason}
	}

	c.mu.Lock()
	c.memoryCache[path] = entry
	c.mu.Unlock()

	return CacheResult{Entry: entry, Found: true, MissReason: MissReasonNone}
}

func (c *FileCache) readEntry(path string) (*Entry, CacheMissReason) {
	data, err := os.ReadFile(c.entryPath(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, MissReasonNotFound
		}
		return nil, MissReasonError
	}

	var entry Entry
	if err := sonic.Unmarshal(data, &entry); err != nil {
		util.LogDebugf("Corrupt cache entry for %s: %v", path, err)
		return nil, MissReasonError
	}
	if entry.FilePath != path {
		// Key collision between two paths.
		return nil, MissReasonNotFound
	}
	for i := range entry.Rows {
		entry.Rows[i].Source = entry.FilePath
	}
	return &entry, MissReasonNone
}

func validate(entry *Entry, runID int, zone string) CacheMissReason {
	if entry.RunID != runID {
		return MissReasonRunID
	}
	if entry.Timezone != zone {
		util.LogDebugf("Cache invalidated for %s: timezone changed (cached: %s, current: %s)",
			entry.FilePath, entry.Timezone, zone)
		return MissReasonTimezone
	}

	currentInfo, err := util.GetFileInfo(entry.FilePath)
	if err != nil {
		util.LogDebugf("Cache validation failed for %s: %v", entry.FilePath, err)
		return MissReasonError
	}

	if currentInfo.Inode != entry.Inode {
		util.LogDebugf("Cache invalidated for %s: inode changed (cached: %d, current: %d)",
			entry.FilePath, entry.Inode, currentInfo.Inode)
		return MissReasonInode
	}
	if currentInfo.Size != entry.FileSize {
		util.LogDebugf("Cache invalidated for %s: size changed (cached: %d, current: %d)",
			entry.FilePath, entry.FileSize, currentInfo.Size)
		return MissReasonSize
	}
	if currentInfo.ModTime != entry.LastModified {
		util.LogDebugf("Cache invalidated for %s: modtime changed", entry.FilePath)
		return MissReasonModTime
	}

	fingerprint, err := util.CalculateFileFingerprint(entry.FilePath)
	if err != nil || fingerprint != entry.ContentFingerprint {
		util.LogDebugf("Cache invalidated for %s: fingerprint mismatch", entry.FilePath)
		return MissReasonFingerprint
	}

	return MissReasonNone
}

// Set records the parsed rows of path.
func (c *FileCache) Set(path string, runID int, zone string, rows []model.Measurement) error {
	fileInfo, err := util.GetFileInfo(path)
	if err != nil {
		return err
	}
	fingerprint, err := util.CalculateFileFingerprint(path)
	if err != nil {
		return err
	}

	entry := &Entry{
		FilePath:           path,
		RunID:              runID,
		Timezone:           zone,
		Rows:               rows,
		LastModified:       fileInfo.ModTime,
		FileSize:           fileInfo.Size,
		Inode:              fileInfo.Inode,
		ContentFingerprint: fingerprint,
	}

	data, err := sonic.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	target := c.entryPath(path)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	c.mu.Lock()
	c.memoryCache[path] = entry
	c.mu.Unlock()
	return nil
}

// Clear drops every cached entry from memory and disk.
func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.memoryCache = make(map[string]*Entry)

	entries, err := os.ReadDir(c.baseDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(c.baseDir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of entries held in memory.
func (c *FileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.memoryCache)
}

// NopCache never hits. It backs --no-cache.
type NopCache struct{}

func (NopCache) Get(string, int, string) CacheResult {
	return CacheResult{MissReason: MissReasonNotFound}
}

func (NopCache) Set(string, int, string, []model.Measurement) error { return nil }

func (NopCache) Clear() error { return nil }
