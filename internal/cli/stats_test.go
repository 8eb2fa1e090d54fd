package cli

import (
	"bytes"
	"testing"

	"github.com/raphaelgruber/scamdetect/internal/metrics"
	"github.com/stretchr/testify/assert"
)

func TestPrintServerStats(t *testing.T) {
	var out bytes.Buffer
	printServerStats(&out, &metrics.Snapshot{
		UptimeSeconds: 12.5,
		Classify:      &metrics.OperationSnapshot{Count: 2, TotalTimeMs: 40, AvgTimeMs: 20, MinTimeMs: 15, MaxTimeMs: 25},
		Respond:       &metrics.OperationSnapshot{Failures: 1},
	})

	s := out.String()
	assert.Contains(t, s, "Uptime: 12.5 seconds")
	assert.Contains(t, s, "Classifier:\n  Calls: 2, Failures: 0, Total: 40ms\n  Time: avg 20.0ms, min 15ms, max 25ms")
	assert.Contains(t, s, "Responder:\n  Calls: 0, Failures: 1, Total: 0ms\n")
	assert.NotContains(t, s, "Replies:")
}
