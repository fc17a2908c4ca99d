package capturesync

import "log/slog"

// Reporter receives human-readable progress messages. Messages are
// informational and never affect control flow.
type Reporter interface {
	Report(msg string)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(msg string)

// Report calls f(msg).
func (f ReporterFunc) Report(msg string) { f(msg) }

// Discard drops every message.
var Discard Reporter = ReporterFunc(func(string) {})

// LogReporter writes progress messages to a logger at info level.
func LogReporter(logger *slog.Logger) Reporter {
	return ReporterFunc(func(msg string) {
		logger.Info("sync: progress", slog.String("message", msg))
	})
}

// Multi fans a message out to several reporters.
func Multi(reporters ...Reporter) Reporter {
	return ReporterFunc(func(msg string) {
		for _, r := range reporters {
			r.Report(msg)
		}
	})
}
