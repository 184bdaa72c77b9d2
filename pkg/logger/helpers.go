package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogItemStart logs the beginning of a work item.
func LogItemStart(l Logger, index, total int, kind, value string) {
	l.WithFields(map[string]interface{}{
		"index": index,
		"total": total,
		"kind":  kind,
		"value": value,
	}).Info("Processing work item")
}

// LogItemDone logs the outcome of a work item.
func LogItemDone(l Logger, index int, value string, elapsed time.Duration, stats map[string]interface{}) {
	fields := map[string]interface{}{
		"index":    index,
		"value":    value,
		"duration": elapsed,
	}
	for k, v := range stats {
		fields[k] = v
	}
	l.InfoWithFields("Work item finished", fields)
}

// LogChange logs a single recorded field change.
func LogChange(l Logger, subject, field, oldValue, newValue, delta string) {
	l.WithFields(map[string]interface{}{
		"subject": subject,
		"field":   field,
		"old":     oldValue,
		"new":     newValue,
		"delta":   delta,
	}).Info("Field changed")
}

// LogSkip logs a work item or record that was skipped and why.
func LogSkip(l Logger, what, reason string, err error) {
	entry := l.WithFields(map[string]interface{}{
		"target": what,
		"reason": reason,
	})
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn("Skipped")
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, settings map[string]interface{}) {
	entry := l.WithField("component", component)
	if len(settings) > 0 {
		entry = entry.WithFields(settings)
	}
	entry.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(l Logger, component, reason string) {
	l.WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a logger that discards everything
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(string)                                       {}
func (n *nopLogger) Info(string)                                        {}
func (n *nopLogger) Warn(string)                                        {}
func (n *nopLogger) Error(string)                                       {}
func (n *nopLogger) Fatal(string)                                       {}
func (n *nopLogger) WithField(string, interface{}) Logger               { return n }
func (n *nopLogger) WithFields(map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(error) Logger                             { return n }
func (n *nopLogger) WithContext(context.Context) Logger                 { return n }
func (n *nopLogger) DebugWithFields(string, map[string]interface{})     {}
func (n *nopLogger) InfoWithFields(string, map[string]interface{})      {}
func (n *nopLogger) WarnWithFields(string, map[string]interface{})      {}
func (n *nopLogger) ErrorWithFields(string, map[string]interface{})     {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                        { z := zerolog.Nop(); return &z }
