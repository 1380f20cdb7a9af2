package util

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// FileInfo contains the attributes used to decide whether a cached parse of a
// file is still valid.
type FileInfo struct {
	ModTime int64  // Last modification time, unix nanoseconds
	Size    int64  // File size in bytes
	Inode   uint64 // Inode number
}

// GetFileInfo stats a file, including its inode number.
// Supported on Linux and macOS.
func GetFileInfo(path string) (*FileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	return &FileInfo{
		ModTime: stat.ModTime().UnixNano(),
		Size:    stat.Size(),
		Inode:   uint64(st.Ino),
	}, nil
}
