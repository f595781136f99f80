package log

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, DebugLevel, WithCaller(false))

	logger.Debug("geometry ready", Bool("cached", true))
	logger.Info("parsed laps",
		Int("count", 42),
		String("file", "report.csv"),
		Float("distance", 590.0),
		Duration("elapsed", 2*time.Second),
		Time("start", time.Date(2023, 5, 14, 10, 0, 0, 0, time.UTC)))
	logger.Warn("samples without geometry match")
	logger.Error("parsing failed", ErrorField(errors.New("boom")))

	out := buf.String()
	assert.Contains(t, out, `"cached":true`)
	assert.Contains(t, out, `"count":42`)
	assert.Contains(t, out, `"file":"report.csv"`)
	assert.Contains(t, out, `"distance":590`)
	assert.Contains(t, out, `"error":"boom"`)
}

func TestLogger_LevelSuppression(t *testing.T) {
	var buf bytes.Buffer
	logger := DevLogger(&buf, WarnLevel)
	require.Equal(t, WarnLevel, logger.Level())

	logger.Debug("hidden")
	logger.Info("hidden too")
	logger.Warn("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}

func TestLogger_NamedAndWith(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, InfoLevel).Named("convert").With(String("session", "morning"))

	logger.Info("done")
	out := buf.String()
	assert.Contains(t, out, `"convert"`)
	assert.Contains(t, out, `"session":"morning"`)
}

func TestLogger_Filters(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, DebugLevel, WithFilters("error:*"))

	logger.Named("track").Info("suppressed by the rules")
	logger.Named("track").Error("kept")

	out := buf.String()
	assert.NotContains(t, out, "suppressed")
	assert.Contains(t, out, "kept")
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, WarnLevel, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestContextRoundTrip(t *testing.T) {
	logger := DevLogger(&bytes.Buffer{}, InfoLevel)

	ctx := AddToContext(context.Background(), logger)
	assert.Same(t, logger, GetFromContext(ctx))

	// without a stored logger the default one is returned
	assert.Same(t, Default(), GetFromContext(context.Background()))
}

func TestResetDefault(t *testing.T) {
	orig := Default()
	defer ResetDefault(orig)

	var buf bytes.Buffer
	ResetDefault(New(&buf, InfoLevel))
	Info("through the default logger")
	require.NoError(t, Default().Sync())

	assert.Contains(t, buf.String(), "through the default logger")
}
