package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/san-kum/pidsim/internal/config"
)

// Setup creates a zerolog logger writing to out according to cfg. An empty
// level means info; format "text" selects the human readable console writer,
// anything else emits JSON lines.
func Setup(cfg config.LoggingConfig, out io.Writer) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return zerolog.Logger{}, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}

	w := out
	if strings.EqualFold(cfg.Format, "text") {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: true}
	}

	return zerolog.New(w).With().Timestamp().Logger().Level(level), nil
}
