package scanner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/penwyp/go-energy-report/internal/core/constants"
	"github.com/penwyp/go-energy-report/internal/util"
)

var (
	ErrNoRunID       = errors.New("no run id in path")
	ErrNoEnergiesDir = errors.New("energies directory not found")
)

var digitsPattern = regexp.MustCompile(`\d+`)

// SourceFile is a measurement CSV together with the run it belongs to.
type SourceFile struct {
	Path  string
	RunID int
}

// FileScanner finds measurement CSVs under <variantDir>/Energies.
type FileScanner struct {
	baseDir string
	subDir  string
	ext     string
}

// NewFileScanner creates a scanner for one variant directory.
func NewFileScanner(variantDir string) *FileScanner {
	return &FileScanner{
		baseDir: variantDir,
		subDir:  constants.EnergiesDir,
		ext:     ".csv",
	}
}

// Root returns the directory actually walked.
func (s *FileScanner) Root() string {
	return filepath.Join(s.baseDir, s.subDir)
}

// Scan walks the Energies subtree and returns every CSV file in lexical path
// order, each tagged with its run id. Any file whose run directory carries no
// digits aborts the scan.
func (s *FileScanner) Scan() ([]SourceFile, error) {
	start := time.Now()
	root := s.Root()

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoEnergiesDir, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNoEnergiesDir, root)
	}

	util.LogDebugf("Start scanning directory: %s", root)

	var files []SourceFile
	dirCount := 0
	totalCount := 0

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			dirCount++
			return nil
		}

		totalCount++
		if !strings.EqualFold(filepath.Ext(path), s.ext) {
			util.LogDebugf("Skip non-CSV file: %s", path)
			return nil
		}

		runID, err := ExtractRunID(root, path)
		if err != nil {
			return err
		}
		files = append(files, SourceFile{Path: path, RunID: runID})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	util.LogDebugf("File scan completed: duration %v, scanned %d directories, %d files, found %d CSV files",
		time.Since(start), dirCount, totalCount, len(files))

	return files, nil
}

// ExtractRunID returns the first decimal number found in the first path
// component below root, e.g. "Energies/run_12/sensor.csv" -> 12.
func ExtractRunID(root, path string) (int, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrNoRunID, path, err)
	}

	segment := strings.Split(filepath.ToSlash(rel), "/")[0]
	match := digitsPattern.FindString(segment)
	if match == "" {
		return 0, fmt.Errorf("%w: %q in %s", ErrNoRunID, segment, path)
	}

	runID, err := strconv.Atoi(match)
	if err != nil {
		return 0, fmt.Errorf("%w: %q in %s: %v", ErrNoRunID, segment, path, err)
	}
	return runID, nil
}
