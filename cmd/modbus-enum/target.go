package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/keirendev/modbus-enum/internal/config"
	"github.com/keirendev/modbus-enum/internal/engine"
	"github.com/keirendev/modbus-enum/internal/session"
)

// targetFlags is the flag set every subcommand shares.
type targetFlags struct {
	target            string
	port              int
	slave             int
	profile           string
	profilesFile      string
	connectTimeoutMs  int
	responseTimeoutMs int
	verbose           bool
}

func addTargetFlags(cmd *cobra.Command, tf *targetFlags) {
	cmd.Flags().StringVar(&tf.target, "target", "", "IP address or hostname of the Modbus device")
	cmd.Flags().IntVar(&tf.port, "port", config.DefaultPort, "Modbus TCP port")
	cmd.Flags().IntVar(&tf.slave, "slave", -1, "Modbus slave id to query (0-255, required)")
	cmd.Flags().StringVar(&tf.profile, "profile", "", "named target profile to use")
	cmd.Flags().StringVar(&tf.profilesFile, "profiles-file", "profiles.yaml", "path to the profiles file")
	cmd.Flags().IntVar(&tf.connectTimeoutMs, "connect-timeout", config.DefaultConnectTimeoutMs, "connect timeout in milliseconds")
	cmd.Flags().IntVar(&tf.responseTimeoutMs, "timeout", config.DefaultResponseTimeoutMs, "response timeout in milliseconds")
	cmd.Flags().BoolVar(&tf.verbose, "verbose", false, "enable verbose output for debugging")
}

// target is the fully resolved connection parameter set.
type target struct {
	addr            string
	slave           uint8
	connectTimeout  time.Duration
	responseTimeout time.Duration
}

// resolve merges flags with an optional profile. Explicit flags always
// win; the profile supplies whatever the caller left at its default.
// The slave id must come from one of the two: it has no default.
func resolve(tf targetFlags, changed func(name string) bool) (target, error) {
	var prof *config.Profile
	if tf.profile != "" {
		f, err := config.Load(tf.profilesFile)
		if err != nil {
			return target{}, err
		}
		if err := config.Validate(f); err != nil {
			return target{}, err
		}
		config.Normalize(f)

		p, err := f.Lookup(tf.profile)
		if err != nil {
			return target{}, err
		}
		prof = &p
	}

	host := tf.target
	port := tf.port
	slave := tf.slave
	connectMs := tf.connectTimeoutMs
	responseMs := tf.responseTimeoutMs

	if prof != nil {
		if host == "" {
			host = prof.Host
		}
		if !changed("port") {
			port = prof.Port
		}
		if slave < 0 && prof.Slave != nil {
			slave = *prof.Slave
		}
		if !changed("connect-timeout") {
			connectMs = prof.ConnectTimeoutMs
		}
		if !changed("timeout") {
			responseMs = prof.ResponseTimeoutMs
		}
	}

	if host == "" {
		return target{}, errors.New("no target: pass --target or --profile")
	}
	if slave < 0 {
		return target{}, errors.New("no slave id: pass --slave or use a profile that sets one")
	}
	if slave > 255 {
		return target{}, fmt.Errorf("slave id %d out of range 0-255", slave)
	}
	if port <= 0 || port > 65535 {
		return target{}, fmt.Errorf("port %d out of range", port)
	}

	return target{
		addr:            net.JoinHostPort(host, strconv.Itoa(port)),
		slave:           uint8(slave),
		connectTimeout:  time.Duration(connectMs) * time.Millisecond,
		responseTimeout: time.Duration(responseMs) * time.Millisecond,
	}, nil
}

// newLogger builds the CLI logger. Verbose mode traces frames at debug
// level; otherwise only warnings and errors surface.
func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// dialEngine opens a session to the target and wraps it in an engine.
// The returned session must be closed by the caller.
func dialEngine(t target, log zerolog.Logger) (*engine.Engine, *session.Session, error) {
	s, err := session.Dial(t.addr,
		session.WithConnectTimeout(t.connectTimeout),
		session.WithResponseTimeout(t.responseTimeout),
		session.WithLogger(log),
	)
	if err != nil {
		return nil, nil, err
	}
	return engine.New(s, t.slave, engine.WithLogger(log)), s, nil
}
