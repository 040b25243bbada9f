package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestWithJob(t *testing.T) {
	var buf bytes.Buffer
	InitializeWriter(&buf, "info", "json")
	defer Initialize("info", "text")

	WithJob("recurring-billing", "run-1").Info("Job started")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "recurring-billing", line["job"])
	assert.Equal(t, "run-1", line["run_id"])
	assert.Equal(t, "Job started", line["msg"])
}

func TestExitMethodWithError_LogsAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	InitializeWriter(&buf, "error", "text")
	defer Initialize("info", "text")

	EnterMethod("billService.AddBillItem")
	assert.Empty(t, buf.String())

	ExitMethodWithError("billService.AddBillItem", assert.AnError)
	assert.Contains(t, buf.String(), "billService.AddBillItem")
	assert.Contains(t, buf.String(), "level=ERROR")
}

func TestContextWith(t *testing.T) {
	var buf bytes.Buffer
	InitializeWriter(&buf, "info", "json")
	defer Initialize("info", "text")

	ctx := ContextWith(context.Background(), "request_id", "req-1")
	ctx = ContextWith(ctx, "operator_id", 42)
	InfoContext(ctx, "Payment submitted", "paymentID", 55)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, float64(42), line["operator_id"])
	assert.Equal(t, float64(55), line["paymentID"])

	buf.Reset()
	Info("No context attributes")
	line = map[string]any{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	_, present := line["request_id"]
	assert.False(t, present)
}
