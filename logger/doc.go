// Package logger provides structured logging for draftkit using zerolog.
//
// Loggers are built from Config (level, json or console format, output) and
// are scoped with WithComponent. Fields are passed as maps:
//
//	log := logger.WithComponent("draft")
//	log.Debug("draft flushed", logger.Fields(logger.FieldDraftKey, "wizard_draft"))
package logger
