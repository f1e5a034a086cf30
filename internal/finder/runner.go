package finder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

var (
	// ErrInvalidDirectory aborts a directory run before any entry is read.
	ErrInvalidDirectory = errors.New("invalid input directory")

	// ErrNotRegularFile marks an input path that is skipped because it is
	// missing or is not a regular file.
	ErrNotRegularFile = errors.New("not a file")
)

// Observer is notified of every record while a run is in progress.
type Observer interface {
	RecordFound(ctx context.Context, runID uuid.UUID, source string, rec Record)
}

// Stats counts what happened to the inputs of one run.
type Stats struct {
	FilesSeen     int `json:"files_seen"`
	FilesScanned  int `json:"files_scanned"`
	FilesFiltered int `json:"files_filtered"`
	FilesIgnored  int `json:"files_ignored"`
	FilesFailed   int `json:"files_failed"`
	MessagesRead  int `json:"messages_read"`
	RecordsFound  int `json:"records_found"`
}

// Result accumulates the records of a single run, in input order.
type Result struct {
	RunID   uuid.UUID
	Records []Record
	Stats   Stats
}

func newResult() *Result {
	return &Result{
		RunID:   uuid.New(),
		Records: []Record{},
	}
}

// FindInFiles processes each path in order. Paths that are not regular
// files are skipped with a warning. The only error is ctx's.
func (f *Finder) FindInFiles(ctx context.Context, paths []string) (*Result, error) {
	res := newResult()
	f.logger.Info("run started", "run_id", res.RunID, "mode", "files", "inputs", len(paths))

	for _, path := range paths {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}
		f.processPath(ctx, res, path)
	}

	f.logRunComplete(res)
	return res, nil
}

// FindInDirectory processes every entry of dir (not recursive). A dir that
// does not exist or is not a directory aborts with ErrInvalidDirectory.
func (f *Finder) FindInDirectory(ctx context.Context, dir string) (*Result, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w (%s)", ErrInvalidDirectory, dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w (%s): %v", ErrInvalidDirectory, dir, err)
	}

	res := newResult()
	f.logger.Info("run started", "run_id", res.RunID, "mode", "directory", "dir", dir, "inputs", len(entries))

	for _, e := range entries {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}
		f.processPath(ctx, res, filepath.Join(dir, e.Name()))
	}

	f.logRunComplete(res)
	return res, nil
}

func (f *Finder) processPath(ctx context.Context, res *Result, path string) {
	res.Stats.FilesSeen++

	data, err := readRegularFile(path)
	if err != nil {
		res.Stats.FilesIgnored++
		if errors.Is(err, ErrNotRegularFile) {
			f.logger.Warn("ignoring file", "path", path, "reason", "not a file")
		} else {
			f.logger.Warn("ignoring file", "path", path, "reason", "unreadable", "error", err)
		}
		return
	}

	records, messages, out, err := f.scan(data)
	res.Stats.MessagesRead += messages

	// Records found before a failure are kept.
	for _, rec := range records {
		res.Records = append(res.Records, rec)
		res.Stats.RecordsFound++
		if f.observer != nil {
			f.observer.RecordFound(ctx, res.RunID, path, rec)
		}
	}

	switch out {
	case outcomeInvalid:
		res.Stats.FilesIgnored++
		f.logger.Warn("ignoring file", "path", path, "reason", "not a valid JSON file", "error", err)
	case outcomeFiltered:
		res.Stats.FilesFiltered++
		f.logger.Debug("not a participant, skipping file", "path", path)
	case outcomeFailed:
		res.Stats.FilesFailed++
		f.logger.Error("bad export file", "path", path, "records_kept", len(records), "error", err)
	default:
		res.Stats.FilesScanned++
		f.logger.Debug("file scanned", "path", path, "messages", messages, "records", len(records))
	}
}

func readRegularFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, path)
	}
	return os.ReadFile(path)
}

func (f *Finder) logRunComplete(res *Result) {
	f.logger.Info("run complete",
		"run_id", res.RunID,
		"files_seen", res.Stats.FilesSeen,
		"files_scanned", res.Stats.FilesScanned,
		"files_filtered", res.Stats.FilesFiltered,
		"files_ignored", res.Stats.FilesIgnored,
		"files_failed", res.Stats.FilesFailed,
		"records", res.Stats.RecordsFound,
	)
}
