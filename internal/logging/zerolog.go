package logging

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

type ZerologLogger struct {
	l zerolog.Logger
}

func NewZerologLogger(l zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{l: l}
}

func (z *ZerologLogger) Debug(_ context.Context, msg string, args ...any) {
	z.l.Debug().Fields(pairs(args)).Msg(msg)
}

func (z *ZerologLogger) Info(_ context.Context, msg string, args ...any) {
	z.l.Info().Fields(pairs(args)).Msg(msg)
}

func (z *ZerologLogger) Warn(_ context.Context, msg string, args ...any) {
	z.l.Warn().Fields(pairs(args)).Msg(msg)
}

func (z *ZerologLogger) Error(_ context.Context, msg string, args ...any) {
	z.l.Error().Fields(pairs(args)).Msg(msg)
}

func (z *ZerologLogger) With(args ...any) Logger {
	return &ZerologLogger{l: z.l.With().Fields(pairs(args)).Logger()}
}

// pairs turns slog-style key-value args into a zerolog field map.
// A trailing key without a value is recorded under "!BADKEY", as slog does.
func pairs(args []any) map[string]any {
	fields := make(map[string]any, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			fields["!BADKEY"] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		fields[key] = args[i+1]
	}
	return fields
}
