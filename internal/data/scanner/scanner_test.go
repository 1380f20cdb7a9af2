package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte("name,time,power,sensor,target\n"), 0644))
	}
}

func TestNewFileScanner(t *testing.T) {
	scanner := NewFileScanner("/tmp/variant")

	assert.Equal(t, "/tmp/variant", scanner.baseDir)
	assert.Equal(t, filepath.Join("/tmp/variant", "Energies"), scanner.Root())
	assert.Equal(t, ".csv", scanner.ext)
}

func TestFileScannerMissingEnergiesDir(t *testing.T) {
	scanner := NewFileScanner(t.TempDir())

	files, err := scanner.Scan()

	assert.ErrorIs(t, err, ErrNoEnergiesDir)
	assert.Nil(t, files)
}

func TestFileScannerEmptyEnergiesDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Energies"), 0755))

	files, err := NewFileScanner(dir).Scan()

	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFileScannerTagsRunIDs(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir,
		"Energies/run10/sensor-a.csv",
		"Energies/run2/sensor-a.csv",
		"Energies/run2/nested/sensor-b.CSV",
		"Energies/run0/readme.txt",
	)

	files, err := NewFileScanner(dir).Scan()
	require.NoError(t, err)
	require.Len(t, files, 3)

	byPath := make(map[string]int)
	for _, f := range files {
		byPath[f.Path] = f.RunID
	}
	assert.Equal(t, 10, byPath[filepath.Join(dir, "Energies/run10/sensor-a.csv")])
	assert.Equal(t, 2, byPath[filepath.Join(dir, "Energies/run2/sensor-a.csv")])
	assert.Equal(t, 2, byPath[filepath.Join(dir, "Energies/run2/nested/sensor-b.CSV")])
}

func TestFileScannerSortedOutput(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir,
		"Energies/run_b3/x.csv",
		"Energies/run_a1/x.csv",
		"Energies/run_a1/a.csv",
	)

	files, err := NewFileScanner(dir).Scan()
	require.NoError(t, err)
	require.Len(t, files, 3)

	for i := 1; i < len(files); i++ {
		assert.Less(t, files[i-1].Path, files[i].Path)
	}
}

func TestFileScannerFailsOnRunDirWithoutDigits(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir,
		"Energies/run1/ok.csv",
		"Energies/latest/bad.csv",
	)

	_, err := NewFileScanner(dir).Scan()

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoRunID))
	assert.Contains(t, err.Error(), "latest")
}

func TestExtractRunID(t *testing.T) {
	root := filepath.Join("data", "Energies")

	tests := []struct {
		name    string
		path    string
		want    int
		wantErr bool
	}{
		{"plain number", "data/Energies/7/s.csv", 7, false},
		{"prefixed", "data/Energies/run-42/s.csv", 42, false},
		{"first digit run wins", "data/Energies/r3_try9/s.csv", 3, false},
		{"deeper digits ignored", "data/Energies/run5/2024/s.csv", 5, false},
		{"leading zeros", "data/Energies/run007/s.csv", 7, false},
		{"no digits", "data/Energies/final/s.csv", 0, true},
		{"file at top level", "data/Energies/sensor.csv", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractRunID(root, filepath.FromSlash(tt.path))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoRunID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
