package authz

import (
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/iota-freight/pkg/configuration"
)

// Config captures the inputs needed to build the freight enforcer.
type Config struct {
	ModelPath  string
	PolicyPath string
	FlagPath   string
	// Flags applies until the flag file is readable.
	Flags        Flags
	Logger       *logrus.Logger
	FlagProvider FlagProvider
}

func (c Config) validate() error {
	switch {
	case c.ModelPath == "":
		return configError("missing model path")
	case c.PolicyPath == "":
		return configError("missing policy path")
	case c.FlagPath == "" && c.FlagProvider == nil:
		return configError("missing flag configuration path")
	}
	return nil
}

func (c Config) normalized() Config {
	c.ModelPath = filepath.Clean(c.ModelPath)
	c.PolicyPath = filepath.Clean(c.PolicyPath)
	if c.FlagPath != "" {
		c.FlagPath = filepath.Clean(c.FlagPath)
	}
	c.Flags = c.Flags.normalized()
	return c
}

// DefaultConfig reads AUTHZ_* settings from the configuration singleton.
func DefaultConfig() Config {
	cfg := configuration.Use()
	return ConfigFromOptions(cfg.Authz, cfg.Logger())
}

func ConfigFromOptions(opts configuration.AuthzOptions, logger *logrus.Logger) Config {
	flags := Flags{Mode: Mode(opts.Mode)}
	if len(opts.ObjectModes) > 0 {
		flags.Objects = make(map[string]Mode, len(opts.ObjectModes))
		for object, mode := range opts.ObjectModes {
			flags.Objects[object] = Mode(mode)
		}
	}
	return Config{
		ModelPath:  opts.ModelPath,
		PolicyPath: opts.PolicyPath,
		FlagPath:   opts.FlagConfigPath,
		Flags:      flags.normalized(),
		Logger:     logger,
	}
}
