package plot

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiihann/iobench/harness"
)

func records() []harness.RunRecord {
	return []harness.RunRecord{
		{Backend: "native", BytesTransferred: 100, ElapsedTime: 1, Operation: harness.OpWrite},
		{Backend: "sgx-io", BytesTransferred: 100, ElapsedTime: 2, Operation: harness.OpWrite},
		{Backend: "native", BytesTransferred: 300, ElapsedTime: 1, Operation: harness.OpWrite},
		{Backend: "sgx-io", BytesTransferred: 80, ElapsedTime: 1, Operation: harness.OpRead},
	}
}

func TestAggregate(t *testing.T) {
	backends, series := Aggregate(records())

	assert.Equal(t, []string{"native", "sgx-io"}, backends)
	require.Len(t, series, 2)

	assert.Equal(t, harness.OpWrite, series[0].Operation)
	assert.Equal(t, []float64{200, 50}, series[0].Values)

	assert.Equal(t, harness.OpRead, series[1].Operation)
	assert.Equal(t, []float64{0, 80}, series[1].Values)
}

func TestRender(t *testing.T) {
	style := DefaultStyle()
	style.Title = "nvme throughput"

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, records(), style))

	out := buf.String()
	assert.Contains(t, out, "nvme throughput")
	assert.Contains(t, out, "native")
	assert.Contains(t, out, "sgx-io")
	assert.Contains(t, out, "GiB/s")
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Render(&buf, nil, DefaultStyle()))
}
