package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiihann/iobench/harness"
	"github.com/weiihann/iobench/results"
)

func sampleRecords() []harness.RunRecord {
	return []harness.RunRecord{
		{
			Backend:          "native",
			BytesTransferred: 40 * 1024 * 1024 * 1024,
			ElapsedTime:      20,
			Operation:        harness.OpWrite,
		},
		{
			Backend:          "sgx-io",
			BytesTransferred: 40 * 1024 * 1024 * 1024,
			ElapsedTime:      40,
			Operation:        harness.OpWrite,
		},
	}
}

func TestGenerate(t *testing.T) {
	var buf bytes.Buffer
	if err := Generate(&buf, sampleRecords()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	output := buf.String()

	for _, want := range []string{
		"native", "sgx-io", "40 GB", "20.00s", "2 GB/s", "1 GB/s", "2.00x", "1.00x",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}

	if !strings.Contains(output, "| Backend ") {
		t.Errorf("expected markdown header in output:\n%s", output)
	}
}

func TestGenerateEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := Generate(&buf, nil)
	if err == nil {
		t.Error("expected error for empty results")
	}
}

func TestGenerateJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := GenerateJSON(&buf, sampleRecords()[:1]); err != nil {
		t.Fatalf("GenerateJSON failed: %v", err)
	}

	var parsed []harness.RunRecord
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if len(parsed) != 1 {
		t.Fatalf("expected 1 result, got %d", len(parsed))
	}
	if parsed[0].Backend != "native" {
		t.Errorf("backend = %q, want native", parsed[0].Backend)
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

	tbl := results.NewTable()
	for _, r := range sampleRecords() {
		tbl.Append(r)
	}

	paths, err := Export(dir, "simpleio", tbl, now)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "simpleio-20240305-140709.tsv"), paths.Timestamped)
	assert.Equal(t, filepath.Join(dir, "simpleio-latest.tsv"), paths.Latest)

	stamped, err := os.ReadFile(paths.Timestamped)
	require.NoError(t, err)
	latest, err := os.ReadFile(paths.Latest)
	require.NoError(t, err)
	assert.Equal(t, stamped, latest)

	loaded, err := results.Load(paths.Latest)
	require.NoError(t, err)
	assert.Equal(t, tbl.Records(), loaded.Records())
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input uint64
		want  string
	}{
		{0, "-"},
		{512, "512 B"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1048576, "1 MB"},
		{1073741824, "1 GB"},
	}

	for _, tt := range tests {
		got := formatBytes(tt.input)
		if got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{0, "0ms"},
		{0.5, "500ms"},
		{1, "1.00s"},
		{81.257, "81.26s"},
	}

	for _, tt := range tests {
		got := formatSeconds(tt.input)
		if got != tt.want {
			t.Errorf("formatSeconds(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
