package cli

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, "ID", "Name", "Status")
	table.Row("1", "ICICIB", "approved")
	table.Row("2", "HDFCBK")
	require.NoError(t, table.Flush())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Name")
	assert.Contains(t, lines[1], "----")
	assert.Contains(t, lines[2], "ICICIB")
	assert.Contains(t, lines[3], "HDFCBK")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "ICICI Ba…", Truncate("ICICI Bank Acct", 9))
	assert.Equal(t, "…", Truncate("abc", 1))
	assert.Equal(t, "abc", Truncate("abc", 0))
	assert.Equal(t, "₹₹…", Truncate("₹₹₹₹", 3))
}

func TestStatusStyle(t *testing.T) {
	assert.Equal(t, SuccessStyle.Render("x"), StatusStyle("matched").Render("x"))
	assert.Equal(t, ErrorStyle.Render("x"), StatusStyle("rejected").Render("x"))
	assert.Equal(t, SubtleStyle.Render("x"), StatusStyle("other").Render("x"))
}

func TestInterruptHandler_Signal(t *testing.T) {
	var buf bytes.Buffer
	handler := NewInterruptHandler(&buf, "Stopping watch")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signals <- os.Interrupt
	handler.wait(ctx, signals, cancel)

	assert.True(t, handler.WasInterrupted())
	assert.Contains(t, buf.String(), "Stopping watch")
	assert.Error(t, ctx.Err())
}

func TestInterruptHandler_ContextDone(t *testing.T) {
	var buf bytes.Buffer
	handler := NewInterruptHandler(&buf, "Stopping watch")
	ctx, stop := handler.HandleInterrupts(context.Background())
	stop()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context should be canceled after stop")
	}
	assert.False(t, handler.WasInterrupted())
	assert.Empty(t, buf.String())
}

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar(&buf, 2, "Importing")
	require.NoError(t, bar.Add(2))
	assert.Contains(t, buf.String(), "Importing")
}
