// Package logger wraps zerolog behind a small interface used by every
// crawl component.
//
//	logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("component", "crawler")
//	log.InfoWithFields("Work item finished", map[string]interface{}{"posts": 12})
//
// Tests use NewTestLogger to capture records, or NewNopLogger to discard them.
package logger
