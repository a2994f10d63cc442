// Package cli implements the rawrcache command line tool for inspecting keys,
// TTLs and store entries described by a configuration file.
package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Keksclan/rawrcache"
	"github.com/Keksclan/rawrcache/config"
)

// DefaultConfigPath is used when --config is not given and RAWRCACHE_CONFIG
// is unset.
const DefaultConfigPath = "rawrcache.yaml"

// NewRootCmd creates the root command.
func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rawrcache",
		Short:         "Inspect and manage a rawrcache store",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: `  # Expand a key template
  rawrcache key "user:#{id}" id=42

  # Show the TTL a group resolves to
  rawrcache ttl --group low

  # Read and evict an entry
  rawrcache get "user:#{id}" id=42
  rawrcache evict "user:#{id}" id=42

  # Verify the configured store is reachable
  rawrcache check --config /etc/rawrcache.yaml

  # Drop expired entries from a bolt store
  rawrcache sweep`,
	}

	cmd.PersistentFlags().String("config", "", "configuration file (default $RAWRCACHE_CONFIG or "+DefaultConfigPath+")")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.AddCommand(newKeyCmd(), newTTLCmd(), newGetCmd(), newEvictCmd(), newCheckCmd(), newSweepCmd())
	return cmd
}

// loadConfig reads the file named by --config, $RAWRCACHE_CONFIG or the
// default path, in that order.
func loadConfig(cmd *cobra.Command) (*config.File, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv("RAWRCACHE_CONFIG")
	}
	if path == "" {
		path = DefaultConfigPath
	}
	return config.Load(path)
}

// newLogger writes console logs to stderr, at debug level with --debug.
func newLogger(cmd *cobra.Command, f *config.File) zerolog.Logger {
	log := f.Logger(cmd.ErrOrStderr())
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		log = log.Level(zerolog.DebugLevel)
	}
	return log
}

// openService builds a Service on the configured store. The returned func
// closes the store.
func openService(cmd *cobra.Command) (*rawrcache.Service, *config.File, func(), error) {
	f, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	store, closer, err := f.OpenStore()
	if err != nil {
		return nil, nil, nil, err
	}
	log := newLogger(cmd, f)
	opts := append(f.Options(cmd.ErrOrStderr()), rawrcache.WithLogger(log))
	svc := rawrcache.New(store, opts...)
	return svc, f, func() {
		if err := closer.Close(); err != nil {
			log.Warn().Err(err).Msg("closing store")
		}
	}, nil
}

// parseParams turns name=value arguments into key parameters.
func parseParams(args []string) (rawrcache.Params, error) {
	params := make(rawrcache.Params, len(args))
	for _, a := range args {
		name, value, ok := strings.Cut(a, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q: want name=value", a)
		}
		params[name] = value
	}
	return params, nil
}

func formatTTL(d time.Duration) string {
	if d == 0 {
		return config.Never
	}
	return d.String()
}
