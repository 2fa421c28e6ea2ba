// internal/history/recorder.go
package history

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Recorder appends operation outcomes to a JSON-lines file and can export
// the accumulated history to CSV. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// NewRecorder creates a recorder writing to path. The parent directory is
// created if missing.
func NewRecorder(path string, logger *zap.Logger) (*Recorder, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}
	return &Recorder{path: path, logger: logger.Named("history")}, nil
}

// Record appends one entry. Recording failures are logged, not propagated:
// history is a side effect and must never fail an operation that already ran.
func (r *Recorder) Record(entry Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		r.logger.Error("Failed to open history file", zap.Error(err))
		return
	}
	defer file.Close()

	if err := json.NewEncoder(file).Encode(entry); err != nil {
		r.logger.Error("Failed to record operation", zap.String("id", entry.ID), zap.Error(err))
		return
	}

	r.logger.Debug("Operation recorded",
		zap.String("id", entry.ID),
		zap.String("operation", entry.Operation),
		zap.Bool("success", entry.Success))
}

// Load reads all recorded entries in file order. Corrupt lines are skipped.
func (r *Recorder) Load() ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			r.logger.Warn("Skipping corrupt history line", zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	return entries, nil
}

// ExportCSV writes the recorded history to a timestamped CSV file in
// outputDir and returns its path.
func (r *Recorder) ExportCSV(outputDir string) (string, error) {
	entries, err := r.Load()
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("no history to export")
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(outputDir,
		fmt.Sprintf("operations_%s.csv", time.Now().Format("20060102_150405")))

	file, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(CSVHeaders()); err != nil {
		return "", fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, entry := range entries {
		if err := writer.Write(entry.ToCSV()); err != nil {
			return "", fmt.Errorf("failed to write entry: %w", err)
		}
	}

	r.logger.Info("History exported",
		zap.String("file", outputPath),
		zap.Int("count", len(entries)))
	return outputPath, nil
}
