package history

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newEntry(op string, success bool) Entry {
	return Entry{
		ID:          uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		Operation:   op,
		Mode:        "single",
		TokenMint:   "Mint111",
		WalletCount: 3,
		Succeeded:   2,
		Failed:      1,
		Success:     success,
		Error:       "Succeeded: 2, Failed: 1",
	}
}

func TestRecordAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ops.jsonl")
	recorder, err := NewRecorder(path, zap.NewNop())
	require.NoError(t, err)

	first := newEntry("buy", true)
	second := newEntry("sell", false)
	recorder.Record(first)
	recorder.Record(second)

	entries, err := recorder.Load()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.ID, entries[0].ID)
	assert.Equal(t, "buy", entries[0].Operation)
	assert.Equal(t, second.ID, entries[1].ID)
	assert.False(t, entries[1].Success)
}

func TestLoadMissingFile(t *testing.T) {
	recorder, err := NewRecorder(filepath.Join(t.TempDir(), "ops.jsonl"), zap.NewNop())
	require.NoError(t, err)

	entries, err := recorder.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadSkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ops.jsonl")
	recorder, err := NewRecorder(path, zap.NewNop())
	require.NoError(t, err)

	recorder.Record(newEntry("buy", true))

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = file.WriteString("{garbage\n")
	require.NoError(t, err)
	require.NoError(t, file.Close())

	recorder.Record(newEntry("sell", true))

	entries, err := recorder.Load()
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRecordConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ops.jsonl")
	recorder, err := NewRecorder(path, zap.NewNop())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recorder.Record(newEntry("buy", true))
		}()
	}
	wg.Wait()

	entries, err := recorder.Load()
	require.NoError(t, err)
	assert.Len(t, entries, 20)
}

func TestExportCSV(t *testing.T) {
	tempDir := t.TempDir()
	recorder, err := NewRecorder(filepath.Join(tempDir, "ops.jsonl"), zap.NewNop())
	require.NoError(t, err)

	recorder.Record(newEntry("buy", true))
	recorder.Record(newEntry("create", false))

	outputPath, err := recorder.ExportCSV(tempDir)
	require.NoError(t, err)

	file, err := os.Open(outputPath)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3, "header plus two entries")
	assert.Equal(t, CSVHeaders(), records[0])
	assert.Equal(t, "buy", records[1][2])
	assert.Equal(t, "create", records[2][2])
}

func TestExportCSVEmptyHistory(t *testing.T) {
	tempDir := t.TempDir()
	recorder, err := NewRecorder(filepath.Join(tempDir, "ops.jsonl"), zap.NewNop())
	require.NoError(t, err)

	_, err = recorder.ExportCSV(tempDir)
	assert.Error(t, err)
}
