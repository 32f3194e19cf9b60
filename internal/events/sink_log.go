package events

import (
	"log/slog"

	"github.com/Kirkezz/parkour-analyzer/internal/logging"
)

type logSink struct {
	logger *slog.Logger
}

// NewLogSink returns a sink that records each emission through the daemon
// logger. Content payloads are logged by size only; the full text still
// reaches subscribers through the hub.
func NewLogSink(logger *slog.Logger) Sink {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &logSink{logger: logger}
}

func (s *logSink) NotifyLocation(path string) {
	s.logger.Info("log located",
		logging.String(logging.FieldPath, path),
		logging.String(logging.FieldEventType, "log_location"))
}

func (s *logSink) NotifyContent(content string) {
	s.logger.Debug("log update published",
		logging.Int("bytes", len(content)),
		logging.String(logging.FieldEventType, "log_update"))
}

func (s *logSink) NotifyError(message string) {
	logging.WarnWithContext(s.logger, "watch error reported", "log_error",
		logging.String("reason", message),
		logging.String(logging.FieldImpact, "subscribers received an error event"))
}
