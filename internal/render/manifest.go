package render

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ManifestDir is the directory, inside the output directory, holding one
// record per rendered file.
const ManifestDir = ".keycapgen"

const manifestFileExtension = ".json"

// manifestIgnore keeps render records out of version control when the output
// directory is checked in. The file ignores itself too.
const manifestIgnore = "# keycapgen render records\n*\n"

// Common manifest errors.
var (
	ErrNoEntry          = errors.New("no manifest entry")
	ErrInvalidEntryKey  = errors.New("manifest entry file name cannot be empty")
	ErrReadOnlyManifest = errors.New("manifest is read-only")
)

// Entry records how an output file was produced.
type Entry struct {
	// File is the output file name relative to the output directory.
	File string `json:"file"`

	// Variant is the resolved keycap name.
	Variant string `json:"variant"`

	// Fingerprint is the SHA-256 of the OpenSCAD arguments used.
	Fingerprint string `json:"fingerprint"`

	// RenderedAt is when the render finished.
	RenderedAt time.Time `json:"rendered_at"`

	// Duration is how long OpenSCAD ran.
	Duration time.Duration `json:"duration_ns"`
}

// Manifest stores Entry records as JSON files under <out>/.keycapgen.
// Safe for concurrent use.
type Manifest struct {
	directory string
	readOnly  bool
	mu        sync.RWMutex
}

// OpenManifest returns the manifest for outDir, creating its directory and a
// .gitignore inside it.
func OpenManifest(outDir string) (*Manifest, error) {
	if outDir == "" {
		outDir = "."
	}
	dir := filepath.Join(outDir, ManifestDir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create manifest directory: %w", err)
	}
	if err := writeIgnore(dir); err != nil {
		return nil, err
	}
	return &Manifest{directory: dir}, nil
}

func writeIgnore(dir string) error {
	path := filepath.Join(dir, ".gitignore")
	//nolint:gosec // git needs to read it.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create manifest .gitignore: %w", err)
	}
	_, writeErr := f.WriteString(manifestIgnore)
	return errors.Join(writeErr, f.Close())
}

// ReadManifest returns the manifest for outDir without creating anything.
// A missing directory reads as empty. Put and Delete fail with
// ErrReadOnlyManifest.
func ReadManifest(outDir string) *Manifest {
	if outDir == "" {
		outDir = "."
	}
	return &Manifest{directory: filepath.Join(outDir, ManifestDir), readOnly: true}
}

// Get returns the entry for an output file name, or ErrNoEntry.
func (m *Manifest) Get(file string) (*Entry, error) {
	if file == "" {
		return nil, ErrInvalidEntryKey
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := os.ReadFile(m.keyToFilePath(file))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoEntry
		}
		return nil, fmt.Errorf("failed to read manifest entry: %w", err)
	}

	var entry Entry
	if unmarshalErr := json.Unmarshal(data, &entry); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest entry: %w", unmarshalErr)
	}
	return &entry, nil
}

// Put writes entry, replacing any previous record for the same file.
func (m *Manifest) Put(entry Entry) error {
	if entry.File == "" {
		return ErrInvalidEntryKey
	}
	if m.readOnly {
		return ErrReadOnlyManifest
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest entry: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	filePath := m.keyToFilePath(entry.File)

	// Write to temporary file first, then rename for atomicity
	tempPath := filePath + ".tmp"
	if writeErr := os.WriteFile(tempPath, data, 0o600); writeErr != nil {
		return fmt.Errorf("failed to write manifest entry: %w", writeErr)
	}
	if renameErr := os.Rename(tempPath, filePath); renameErr != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename manifest entry: %w", renameErr)
	}
	return nil
}

// Delete removes the record for file. Missing records are not an error.
func (m *Manifest) Delete(file string) error {
	if file == "" {
		return ErrInvalidEntryKey
	}
	if m.readOnly {
		return ErrReadOnlyManifest
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	err := os.Remove(m.keyToFilePath(file))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete manifest entry: %w", err)
	}
	return nil
}

// Count returns the number of records. A missing directory holds none.
func (m *Manifest) Count() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries, err := os.ReadDir(m.directory)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read manifest directory: %w", err)
	}

	count := 0
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == manifestFileExtension {
			count++
		}
	}
	return count, nil
}

// keyToFilePath converts an output file name to its record path. Escaping is
// reversible, so distinct names never share a record.
func (m *Manifest) keyToFilePath(file string) string {
	return filepath.Join(m.directory, url.QueryEscape(file)+manifestFileExtension)
}

// Fingerprint hashes an OpenSCAD argument list. Arguments are NUL separated
// so that no two distinct lists share a hash input.
func Fingerprint(args []string) string {
	h := sha256.New()
	for _, a := range args {
		h.Write([]byte(a))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
