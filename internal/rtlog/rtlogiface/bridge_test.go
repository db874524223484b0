package rtlogiface

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/joeycumines/stumpy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decodeEvents decodes one JSON object per logged event from buf. It uses a
// json.Decoder rather than splitting on newlines: encoding/json's Decoder
// tracks brace depth and reads successive self-delimited values whether or
// not the writer inserts separators between them, so this doesn't assume
// anything about stumpy's exact framing beyond "one JSON object per event".
func decodeEvents(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	dec := json.NewDecoder(buf)
	var events []map[string]any
	for dec.More() {
		var m map[string]any
		require.NoError(t, dec.Decode(&m))
		events = append(events, m)
	}
	return events
}

func TestNewStumpyEmitsOneEventPerCall(t *testing.T) {
	var buf bytes.Buffer
	l := NewStumpy(stumpy.WithWriter(&buf))

	l.Info("executor started", "coreWorkers", 4)
	l.Warn("recovered panic", "panic", "boom")
	l.Error("reactor close failed")
	l.Debug("ignored at default level") // must not panic even if filtered

	events := decodeEvents(t, &buf)
	require.GreaterOrEqual(t, len(events), 3)

	assert.Equal(t, "executor started", events[0]["msg"])
	assert.Equal(t, float64(4), events[0]["coreWorkers"])
}

func TestNewStumpyOddKVIsIgnored(t *testing.T) {
	var buf bytes.Buffer
	l := NewStumpy(stumpy.WithWriter(&buf))

	l.Info("dangling key", "onlyKey")

	events := decodeEvents(t, &buf)
	require.Len(t, events, 1)
	assert.Equal(t, "dangling key", events[0]["msg"])
	assert.NotContains(t, events[0], "onlyKey")
}
