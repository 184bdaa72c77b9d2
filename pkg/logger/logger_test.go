package logger

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"xwatch/pkg/config"
)

func bufferLogger(buf *bytes.Buffer) *zerologLogger {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	return &zerologLogger{zl: zerolog.New(buf).Level(zerolog.DebugLevel)}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "info level", cfg: &config.LoggingConfig{Level: "info"}},
		{name: "debug level", cfg: &config.LoggingConfig{Level: "debug"}},
		{name: "invalid level", cfg: &config.LoggingConfig{Level: "chatty"}, wantErr: true},
		{name: "file output", cfg: &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "xwatch.log")}},
		{name: "json file output", cfg: &config.LoggingConfig{Level: "warn", File: filepath.Join(t.TempDir(), "x.log"), JSON: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"loud", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestFieldsAreCarried(t *testing.T) {
	var buf bytes.Buffer
	l := bufferLogger(&buf)

	l.WithField("handle", "jack").
		WithFields(map[string]interface{}{"index": 3, "ok": true}).
		Info("visited")

	out := buf.String()
	assert.Contains(t, out, "visited")
	assert.Contains(t, out, `"handle":"jack"`)
	assert.Contains(t, out, `"index":3`)
	assert.Contains(t, out, `"ok":true`)
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	l := bufferLogger(&buf)

	_ = l.WithField("child", "yes")
	l.Info("parent")

	assert.NotContains(t, buf.String(), "child")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := bufferLogger(&buf)

	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("snapshot failed")).Error("boom")
	assert.Contains(t, buf.String(), "snapshot failed")
}

func TestFieldTypes(t *testing.T) {
	var buf bytes.Buffer
	l := bufferLogger(&buf)

	l.InfoWithFields("typed", map[string]interface{}{
		"int64":    int64(456),
		"float":    1.5,
		"time":     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		"duration": 5 * time.Second,
		"strings":  []string{"a", "b"},
		"err":      errors.New("inner"),
		"custom":   struct{ Name string }{Name: "x"},
	})

	out := buf.String()
	assert.Contains(t, out, `"int64":456`)
	assert.Contains(t, out, `"strings":["a","b"]`)
	assert.Contains(t, out, `"err":"inner"`)
}

func TestHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogItemStart(tl, 2, 10, "user", "jack")
	LogChange(tl, "jack", "Followers", "10", "12", "2")
	LogSkip(tl, "jack", "retry marker", errors.New("blocked"))

	msgs := tl.GetMessages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "jack", msgs[0].Fields["value"])
	assert.Equal(t, "Followers", msgs[1].Fields["field"])
	assert.Equal(t, "WARN", msgs[2].Level)
	assert.EqualError(t, msgs[2].Error, "blocked")
}

func TestTestLoggerSharesBuffer(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("component", "ledger")
	child.Warn("drift")

	assert.True(t, tl.HasMessage("drift"))
	assert.Equal(t, "ledger", tl.GetMessagesByLevel("WARN")[0].Fields["component"])
	assert.False(t, tl.HasError())

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestGlobalLogger(t *testing.T) {
	require.NoError(t, Initialize(&config.LoggingConfig{Level: "debug"}))
	assert.NotNil(t, GetLogger())

	tl := NewTestLogger()
	SetLogger(tl)
	defer SetLogger(nil)

	WithField("k", "v").Info("global")
	assert.True(t, tl.HasMessage("global"))
}
