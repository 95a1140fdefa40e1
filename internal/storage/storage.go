package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

const (
	GroupFile   = "pyladies_group.json"
	MembersFile = "pyladies_members.json"
	SummaryFile = "run_summary.json"
)

// nameBlacklist lists characters removed from names before they are used on disk.
const nameBlacklist = `,:;/\*[](){}`

// Storage handles persistence of collected data under one output directory
type Storage struct {
	dataDir string
}

// New creates a new Storage instance, creating dataDir if needed
func New(dataDir string) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Dir returns the output directory
func (s *Storage) Dir() string {
	return s.dataDir
}

// CleanName strips the characters ,:;/\*[](){} and all whitespace from name.
func CleanName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || strings.ContainsRune(nameBlacklist, r) {
			return -1
		}
		return r
	}, name)
}

// ChapterDir creates (if needed) and returns the directory for a chapter group
func (s *Storage) ChapterDir(groupName string) (string, error) {
	clean := CleanName(groupName)
	if clean == "" || clean == "." || clean == ".." {
		return "", fmt.Errorf("group name %q is not usable as a directory name", groupName)
	}

	dir := filepath.Join(s.dataDir, clean)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating chapter directory: %w", err)
	}
	return dir, nil
}

// Save writes data as an indented JSON document to path, overwriting any
// existing file
func (s *Storage) Save(data any, path string) error {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}

	if err := os.WriteFile(path, encoded, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}

	return nil
}

// Load reads the JSON document at path into v. Numbers decoded into interface
// values are kept as json.Number so they survive a save/load cycle unchanged.
func Load(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}

	return nil
}

// ListChapters returns the chapter directory names under the output directory, sorted
func (s *Storage) ListChapters() ([]string, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("listing output directory: %w", err)
	}

	var chapters []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.dataDir, e.Name(), GroupFile)); err != nil {
			continue
		}
		chapters = append(chapters, e.Name())
	}
	sort.Strings(chapters)

	return chapters, nil
}
