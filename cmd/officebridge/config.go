package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/viper"

	"github.com/pdiddy/officebridge/pkg/types"
)

// envKeys are the scalar settings that may come from OFFICEBRIDGE_* variables.
// Viper's AutomaticEnv only reaches keys it already knows about.
var envKeys = []string{
	"conversion.backend",
	"conversion.binary",
	"conversion.image",
	"conversion.timeout",
	"conversion.work_dir",
	"journal.path",
	"journal.disabled",
	"journal.history_limit",
	"secrets_dir",
	"log_level",
}

// loadConfig decodes v into a Config and applies defaults.
func loadConfig(v *viper.Viper, home string) (*types.Config, error) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range envKeys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("binding %s: %w", k, err)
		}
	}

	var c types.Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	c.ApplyDefaults(home)
	return &c, nil
}

// newLogger returns a JSON logger on w that drops entries below lvl.
func newLogger(w io.Writer, lvl string) (log.Logger, error) {
	logger := log.NewJSONLogger(log.NewSyncWriter(w))
	logger = log.With(logger,
		"ts", log.DefaultTimestampUTC,
		"caller", log.DefaultCaller,
	)

	switch strings.ToLower(lvl) {
	case "debug":
		logger = level.NewFilter(logger, level.AllowDebug())
	case "info":
		logger = level.NewFilter(logger, level.AllowInfo())
	case "warn", "":
		logger = level.NewFilter(logger, level.AllowWarn())
	case "error":
		logger = level.NewFilter(logger, level.AllowError())
	default:
		return nil, fmt.Errorf("unknown log level %q", lvl)
	}
	return logger, nil
}
