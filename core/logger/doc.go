// Package logger provides slog attribute helpers shared across the module.
//
// Helpers return an empty slog.Attr for zero inputs, so call sites never
// need nil or empty checks:
//
//	log.Info("step handled",
//		logger.SessionID(sess.ID),
//		logger.Stage(string(sess.Stage)),
//		logger.Error(err), // no-op when err is nil
//	)
package logger
