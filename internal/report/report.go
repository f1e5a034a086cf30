package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/MikeSquared-Agency/nickfinder/internal/finder"
)

// Document is the layout of the result file.
type Document struct {
	Result []finder.Record `json:"result"`
	Length int             `json:"length"`
}

// NicknameCount is one distinct nickname and how often it was found.
type NicknameCount struct {
	Nickname    string `json:"nickname"`
	Count       int    `json:"count"`
	FirstSeenMs int64  `json:"first_seen_ms"`
	LastSeenMs  int64  `json:"last_seen_ms"`
}

// Summary groups records by nickname in first-seen order.
type Summary struct {
	Nicknames []NicknameCount `json:"nicknames"`
}

// Distinct returns the number of different nicknames.
func (s Summary) Distinct() int {
	return len(s.Nicknames)
}

// Summarize counts occurrences of each nickname. Timestamps are not assumed
// to be sorted.
func Summarize(records []finder.Record) Summary {
	index := make(map[string]int)
	var s Summary
	for _, r := range records {
		i, ok := index[r.Nickname]
		if !ok {
			index[r.Nickname] = len(s.Nicknames)
			s.Nicknames = append(s.Nicknames, NicknameCount{
				Nickname:    r.Nickname,
				Count:       1,
				FirstSeenMs: r.TimestampMs,
				LastSeenMs:  r.TimestampMs,
			})
			continue
		}
		n := &s.Nicknames[i]
		n.Count++
		if r.TimestampMs < n.FirstSeenMs {
			n.FirstSeenMs = r.TimestampMs
		}
		if r.TimestampMs > n.LastSeenMs {
			n.LastSeenMs = r.TimestampMs
		}
	}
	return s
}

// Print writes the human-readable summary.
func (s Summary) Print(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Found %d nicknames:\n", s.Distinct()); err != nil {
		return err
	}
	for _, n := range s.Nicknames {
		line := "\t" + n.Nickname
		if n.Count > 1 {
			line += fmt.Sprintf(" (%d times)", n.Count)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Encode renders records as a result document: four-space indent, with
// non-ASCII and HTML characters written as-is.
func Encode(records []finder.Record) ([]byte, error) {
	if records == nil {
		records = []finder.Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(Document{Result: records, Length: len(records)}); err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return buf.Bytes(), nil
}

// Export writes the result file.
func Export(path string, records []finder.Record) error {
	data, err := Encode(records)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// Load reads a result file written by Export.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read result: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse result: %w", err)
	}
	if doc.Result == nil {
		doc.Result = []finder.Record{}
	}
	return &doc, nil
}
