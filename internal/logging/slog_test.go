package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONLoggerWritesKeyValues(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSON(&buf)

	log.Info(context.Background(), "hello", "owner_id", "u1")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "hello", rec["msg"])
	require.Equal(t, "u1", rec["owner_id"])
	require.Equal(t, "INFO", rec["level"])
}

func TestWithAddsPersistentFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSON(&buf).With("module", "httpapi")

	log.Warn(context.Background(), "slow consumer")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "httpapi", rec["module"])
	require.Equal(t, "WARN", rec["level"])
}
