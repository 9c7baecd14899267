// Package dedup maintains the rolling set of recently published article tokens.
package dedup

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Index is the set of dedup tokens seen within the retention window. It is
// shared across pipeline workers; ContainsOrInsert is the only operation
// performed concurrently.
type Index struct {
	mu     sync.Mutex
	tokens map[string]struct{}
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{tokens: make(map[string]struct{})}
}

// recordHeader is the slice of a persisted record the loader cares about.
type recordHeader struct {
	ArticleHash string `json:"article_hash"`
	Date        string `json:"date"`
}

// Load seeds an index from the JSON records in dir, keeping tokens whose
// record date falls within the retention window ending at now. Records that
// cannot be read, lack a token or date, or carry an unparsable date are
// logged and skipped. A missing directory yields an empty index.
func Load(dir string, retention time.Duration, now time.Time) (*Index, error) {
	idx := NewIndex()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, err
	}

	cutoff := now.Add(-retention)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Skipped reading %s: %v", path, err)
			continue
		}

		var rec recordHeader
		if err := json.Unmarshal(data, &rec); err != nil {
			log.Printf("Skipped unparsable record %s: %v", path, err)
			continue
		}
		if rec.ArticleHash == "" || rec.Date == "" {
			continue
		}

		ts, ok := parseRecordTime(rec.Date)
		if !ok {
			log.Printf("Skipped record with bad date %s: %q", path, rec.Date)
			continue
		}

		if !ts.Before(cutoff) {
			idx.tokens[rec.ArticleHash] = struct{}{}
		}
	}

	return idx, nil
}

// recordTimeLayouts covers RFC 3339 plus the zoneless forms older records
// were written with. Zoneless timestamps are taken as UTC.
var recordTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseRecordTime(value string) (time.Time, bool) {
	for _, layout := range recordTimeLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// ContainsOrInsert reports whether token was already present, inserting it if
// not. The check and the insert are one atomic step: of N concurrent callers
// with the same token, exactly one observes false.
func (i *Index) ContainsOrInsert(token string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.tokens[token]; ok {
		return true
	}
	i.tokens[token] = struct{}{}
	return false
}

// Len returns the number of tokens currently held.
func (i *Index) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.tokens)
}
