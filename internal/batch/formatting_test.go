package batch

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glyphtech/symscan/internal/pipeline"
)

func sampleBatch() *Result {
	return &Result{
		Files: []FileResult{
			{
				Path: "plans/a.pdf",
				Result: &pipeline.Result{
					File: "plans/a.pdf",
					Pages: []pipeline.PageResult{
						{Page: 1, Symbols: []pipeline.SymbolCount{
							{Name: "valve", Count: 2},
							{Name: "pump", Count: 1},
						}},
					},
				},
			},
			{Path: "plans/b.pdf", Error: "unreadable document"},
		},
		Duration: 120 * time.Millisecond,
	}
}

func TestResultTotals(t *testing.T) {
	r := sampleBatch()
	assert.Equal(t, 3, r.TotalCount())
	assert.Equal(t, 1, r.Failed())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleBatch().WriteJSON(&buf))

	var got Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got.Files, 2)
	assert.Equal(t, "plans/a.pdf", got.Files[0].Path)
	assert.Equal(t, "unreadable document", got.Files[1].Error)
	assert.Nil(t, got.Files[1].Result)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleBatch().WriteCSV(&buf))

	out := buf.String()
	assert.Contains(t, out, "file,page,symbol,count\n")
	assert.Contains(t, out, "plans/a.pdf,1,valve,2\n")
	assert.Contains(t, out, "plans/a.pdf,1,pump,1\n")
	assert.NotContains(t, out, "plans/b.pdf")
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleBatch().WriteText(&buf))

	out := buf.String()
	assert.Contains(t, out, "plans/a.pdf: 3 symbols")
	assert.Contains(t, out, "plans/b.pdf: failed: unreadable document")
	assert.Contains(t, out, "total: 3 symbols in 2 files (1 failed)")
}
