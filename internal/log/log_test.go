package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonLogger(buf *bytes.Buffer) *Logger {
	return New(Config{Level: slog.LevelDebug, Format: "json", Output: buf})
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var rec map[string]any
		require.NoError(t, dec.Decode(&rec))
		out = append(out, rec)
	}
	return out
}

func TestLogger_StampsComponent(t *testing.T) {
	var buf bytes.Buffer
	jsonLogger(&buf).WithComponent(ComponentLedger).With(FieldUserID, "u1").Info("hello", FieldCount, 2)

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "ledger", recs[0][FieldComponent])
	assert.Equal(t, "u1", recs[0][FieldUserID])
	assert.EqualValues(t, 2, recs[0][FieldCount])
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestStatusLevel(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, StatusLevel(204))
	assert.Equal(t, slog.LevelWarn, StatusLevel(404))
	assert.Equal(t, slog.LevelError, StatusLevel(503))
}

func TestFromContext(t *testing.T) {
	fallback := Discard().WithComponent(ComponentHTTP)
	assert.Same(t, fallback, FromContext(context.Background(), fallback))
	assert.NotNil(t, FromContext(context.Background(), nil))

	stored := Discard().WithComponent(ComponentTrace)
	ctx := WithContext(context.Background(), stored)
	assert.Same(t, stored, FromContext(ctx, fallback))
}

func TestTransactionAttrs(t *testing.T) {
	attrs := TransactionAttrs("", "expense", "Food", "wallet", 1250)
	assert.NotContains(t, attrs, FieldTransactionID)
	assert.Len(t, attrs, 8)

	attrs = TransactionAttrs("t1", "income", "Salary", "bank", 100)
	assert.Equal(t, []any{FieldTransactionID, "t1"}, attrs[:2])
}

func TestAccessLogger(t *testing.T) {
	var buf bytes.Buffer
	access := NewAccessLogger(jsonLogger(&buf).WithComponent(ComponentTrace))
	req := Request{ID: "req_1", Method: "GET", Path: "/api/state", ClientIP: "10.0.0.1"}

	access.Started(context.Background(), req)
	access.Finished(context.Background(), req, 500, 1500*time.Microsecond)

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "INFO", recs[0]["level"])
	assert.NotContains(t, recs[0], FieldQuery)

	end := recs[1]
	assert.Equal(t, "ERROR", end["level"])
	assert.Equal(t, "trace", end[FieldComponent])
	assert.EqualValues(t, 500, end[FieldStatusCode])
	assert.EqualValues(t, 1, end[FieldDuration])
	assert.Equal(t, false, end[FieldSuccess])
}
