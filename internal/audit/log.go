package audit

import (
	"context"
	"log/slog"

	"github.com/ashureev/bluecaller/internal/domain"
	"github.com/ashureev/bluecaller/internal/pipeline"
)

// Log is the append-only audit log. It records one line per pipeline run
// plus any free-form lines written through Logger.
type Log struct {
	file   *appendFile
	logger *slog.Logger
}

// Level is the fixed threshold of the audit log. It does not follow
// LOG_LEVEL so every run's entry is kept.
const Level = slog.LevelInfo

// Open opens (or creates) the audit log at path.
func Open(path string) (*Log, error) {
	f, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	return &Log{
		file:   f,
		logger: slog.New(newLineHandler(f, Level)),
	}, nil
}

// Logger exposes the audit log as a *slog.Logger.
func (l *Log) Logger() *slog.Logger {
	return l.logger
}

// Path returns the file path of the log.
func (l *Log) Path() string {
	return l.file.path
}

// Record implements pipeline.Auditor.
func (l *Log) Record(ctx context.Context, e pipeline.AuditEntry) {
	level, msg := levelFor(e)

	attrs := []slog.Attr{
		slog.String("request_id", e.RequestID),
		slog.String("ip", e.ClientAddress),
		slog.String("raw_input", e.RawInput),
		slog.String("classified_as", e.Label),
		slog.String("prompt", e.TemplateKey),
		slog.String("outcome", string(e.Outcome)),
		slog.String("output", e.Preview),
	}
	if e.Err != nil {
		attrs = append(attrs, slog.String("error", e.Err.Error()))
	}
	l.logger.LogAttrs(ctx, level, msg, attrs...)
}

// Close closes the underlying file.
func (l *Log) Close() error {
	return l.file.Close()
}

func levelFor(e pipeline.AuditEntry) (slog.Level, string) {
	switch e.Outcome {
	case domain.OutcomeGenerated:
		return slog.LevelInfo, "Output generated"
	case domain.OutcomeUnrecognizedCategory:
		return slog.LevelWarn, "Input not classified"
	case domain.OutcomeClassificationTransportError:
		return slog.LevelError, "Classification failed"
	default:
		return slog.LevelError, "Generation failed"
	}
}

var _ pipeline.Auditor = (*Log)(nil)
