package logger

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/tuncerburak97/gozlem/internal/model"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const recordMessage = "request"

// ZerologSink writes records through a zerolog logger. zerolog loggers are
// safe for concurrent use as long as the writer is.
type ZerologSink struct {
	logger zerolog.Logger
}

func NewZerologSink(l zerolog.Logger) *ZerologSink {
	return &ZerologSink{logger: l}
}

func (s *ZerologSink) Log(level model.Level, record model.Record) {
	var e *zerolog.Event
	if level == model.LevelCritical {
		// WithLevel never exits, unlike Fatal.
		e = s.logger.WithLevel(zerolog.FatalLevel)
	} else {
		e = s.logger.Info()
	}
	if e == nil {
		return
	}

	for _, f := range record.Fields {
		switch v := f.Value.(type) {
		case string:
			e.Str(f.Key, v)
		case []string:
			e.Strs(f.Key, v)
		case int:
			e.Int(f.Key, v)
		case float64:
			e.Float64(f.Key, v)
		case []byte:
			e.Bytes(f.Key, v)
		default:
			e.Interface(f.Key, v)
		}
	}
	e.Msg(recordMessage)
}

// ZapSink writes records through a zap logger.
type ZapSink struct {
	logger *zap.Logger
}

func NewZapSink(l *zap.Logger) *ZapSink {
	return &ZapSink{logger: l}
}

func (s *ZapSink) Log(level model.Level, record model.Record) {
	fields := make([]zap.Field, 0, len(record.Fields))
	for _, f := range record.Fields {
		switch v := f.Value.(type) {
		case string:
			fields = append(fields, zap.String(f.Key, v))
		case []string:
			fields = append(fields, zap.Strings(f.Key, v))
		case int:
			fields = append(fields, zap.Int(f.Key, v))
		case float64:
			fields = append(fields, zap.Float64(f.Key, v))
		case []byte:
			fields = append(fields, zap.ByteString(f.Key, v))
		default:
			fields = append(fields, zap.Any(f.Key, v))
		}
	}

	if level != model.LevelCritical {
		s.logger.Info(recordMessage, fields...)
		return
	}

	// Going through the core skips the exit hook zap attaches to Fatal.
	core := s.logger.Core()
	entry := zapcore.Entry{
		Level:   zapcore.FatalLevel,
		Time:    time.Now(),
		Message: recordMessage,
	}
	if ce := core.Check(entry, nil); ce != nil {
		ce.Write(fields...)
	}
}
