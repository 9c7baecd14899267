// Package store persists emojipasta records as flat JSON files with sibling
// thumbnail images. The output directories are the system's public surface:
// the frontend and the dedup loader both read them directly.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"
)

// Record is one persisted article. Once written it is immutable.
type Record struct {
	Headline    string `json:"headline"`
	Text        string `json:"text"`
	Date        string `json:"date"`
	ArticleHash string `json:"article_hash,omitempty"`
	Image       string `json:"image,omitempty"`
}

// Store writes records to the news directory and thumbnails alongside.
type Store struct {
	newsDir   string
	thumbsDir string
}

// New creates a Store. Directories are created on first write.
func New(newsDir, thumbsDir string) *Store {
	return &Store{newsDir: newsDir, thumbsDir: thumbsDir}
}

// SanitizeTitle reduces a source title to a filesystem-safe stem: only
// alphanumerics, hyphens and underscores survive, spaces become underscores,
// and the result is cut to 50 characters.
func SanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	safe := strings.TrimRight(b.String(), " ")
	safe = strings.ReplaceAll(safe, " ", "_")
	if len(safe) > 50 {
		safe = safe[:50]
	}
	return safe
}

// stem derives the shared filename stem for a record and its thumbnail.
// Second-granularity timestamps keep filenames unique within a run.
func stem(ts time.Time, title string) string {
	return ts.UTC().Format("20060102_150405") + "_" + SanitizeTitle(title)
}

// Write persists rec (and its thumbnail, when image is non-nil) under a
// timestamp+title derived filename, returning the JSON filename. The record
// is the atomic unit of success: the JSON file appears fully written or not
// at all, so a failed write never leaves a partial record for the dedup
// loader to trip over.
func (s *Store) Write(rec *Record, title string, ts time.Time, image []byte) (string, error) {
	if err := os.MkdirAll(s.newsDir, 0o755); err != nil {
		return "", fmt.Errorf("creating news directory: %w", err)
	}

	name := stem(ts, title)

	if image != nil {
		if err := os.MkdirAll(s.thumbsDir, 0o755); err != nil {
			return "", fmt.Errorf("creating thumbnails directory: %w", err)
		}
		imageName := name + ".jpg"
		if err := os.WriteFile(filepath.Join(s.thumbsDir, imageName), image, 0o644); err != nil {
			return "", fmt.Errorf("writing thumbnail: %w", err)
		}
		rec.Image = imageName
	}

	rec.Date = ts.UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding record: %w", err)
	}

	jsonName := name + ".json"
	target := filepath.Join(s.newsDir, jsonName)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("writing record: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("finalizing record: %w", err)
	}

	return jsonName, nil
}

// ListedRecord pairs a record with its filename for display.
type ListedRecord struct {
	Filename string
	Record   Record
}

// List returns readable records newest-first. Unreadable files are skipped;
// the dedup loader applies the same tolerance.
func (s *Store) List() ([]ListedRecord, error) {
	entries, err := os.ReadDir(s.newsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var records []ListedRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.newsDir, entry.Name()))
		if err != nil {
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		records = append(records, ListedRecord{Filename: entry.Name(), Record: rec})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Filename > records[j].Filename
	})
	return records, nil
}

// NewsDir returns the news output directory.
func (s *Store) NewsDir() string { return s.newsDir }

// ThumbnailsDir returns the thumbnail output directory.
func (s *Store) ThumbnailsDir() string { return s.thumbsDir }
