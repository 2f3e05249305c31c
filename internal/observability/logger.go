package observability

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewConsoleLogger builds a human-readable logger writing to out.
// Commands pass stderr; converted data never shares a stream with it.
func NewConsoleLogger(out io.Writer, app string, noColor, timestamp bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}
	ctx := zerolog.New(output).With().Str("app", app)
	if timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}
