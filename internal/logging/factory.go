package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rs/zerolog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Supported backends.
const (
	BackendSlog    = "slog"
	BackendZap     = "zap"
	BackendZerolog = "zerolog"
)

// New builds a JSON logger writing to w for the named backend and level
// ("debug", "info", "warn", "error"). An empty backend means slog.
func New(backend, level string, w io.Writer) (Logger, error) {
	switch strings.ToLower(backend) {
	case "", BackendSlog:
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(orInfo(level))); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		return NewSlogLogger(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))), nil

	case BackendZap:
		lvl, err := zapcore.ParseLevel(orInfo(level))
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		enc := zap.NewProductionEncoderConfig()
		enc.EncodeTime = zapcore.ISO8601TimeEncoder
		core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(w), lvl)
		return NewZapLogger(zap.New(core)), nil

	case BackendZerolog:
		lvl, err := zerolog.ParseLevel(orInfo(level))
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		return NewZerologLogger(zerolog.New(w).Level(lvl).With().Timestamp().Logger()), nil

	default:
		return nil, fmt.Errorf("unknown log backend %q", backend)
	}
}

func orInfo(level string) string {
	if level == "" {
		return "info"
	}
	return strings.ToLower(level)
}
