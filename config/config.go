// Package config reads tester settings from .env files and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/sarchlab/avrtester/tester"
	"github.com/sarchlab/avrtester/timing"
)

// Environment variables read by Load.
const (
	EnvClockHz     = "AVRTESTER_CLOCK_HZ"
	EnvTimeoutMs   = "AVRTESTER_TIMEOUT_MS"
	EnvMonitorPort = "AVRTESTER_MONITOR_PORT"
	EnvRecord      = "AVRTESTER_RECORD"
	EnvAllowSleep  = "AVRTESTER_ALLOW_SLEEP"
)

const defaultEnvFile = ".env"

// Config holds the settings of a run. Zero values mean "not configured".
type Config struct {
	// Clock is the frequency the simulator must run at.
	Clock timing.Freq

	// TimeoutMillis is the cycle budget, in milliseconds of simulated time.
	TimeoutMillis uint64

	// MonitorPort is the port of the monitoring server; zero picks one.
	MonitorPort int

	// RecordPath is where the run is recorded, without the extension. Empty
	// disables recording.
	RecordPath string

	// AllowSleep accepts a sleeping MCU.
	AllowSleep bool
}

// Load reads the given .env files into the environment, without overriding
// variables that are already set, and builds a Config from the environment.
// Without files, .env in the working directory is read if it exists.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		if _, err := os.Stat(defaultEnvFile); err == nil {
			files = []string{defaultEnvFile}
		}
	}

	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("load env file: %w", err)
			}

			return Config{}, fmt.Errorf("parse env file: %w", err)
		}
	}

	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (Config, error) {
	var c Config

	clock, err := lookupUint(EnvClockHz, 32)
	if err != nil {
		return Config{}, err
	}

	c.Clock = timing.Freq(clock)

	c.TimeoutMillis, err = lookupUint(EnvTimeoutMs, 64)
	if err != nil {
		return Config{}, err
	}

	port, err := lookupUint(EnvMonitorPort, 16)
	if err != nil {
		return Config{}, err
	}

	c.MonitorPort = int(port)
	c.RecordPath = os.Getenv(EnvRecord)

	if v, ok := os.LookupEnv(EnvAllowSleep); ok && v != "" {
		c.AllowSleep, err = strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvAllowSleep, err)
		}
	}

	return c, nil
}

func lookupUint(name string, bitSize int) (uint64, error) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return 0, nil
	}

	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, bitSize)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}

	return n, nil
}

// Apply sets the configured values on a tester builder and leaves the rest of
// the builder untouched.
func (c Config) Apply(b tester.Builder) tester.Builder {
	if c.Clock != 0 {
		b = b.WithClock(c.Clock)
	}

	if c.TimeoutMillis != 0 {
		b = b.WithTimeoutOfMillis(c.TimeoutMillis)
	}

	if c.AllowSleep {
		b = b.WithSleepAllowed()
	}

	return b
}
