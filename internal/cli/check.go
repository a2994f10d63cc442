package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Keksclan/rawrcache"
	"github.com/Keksclan/rawrcache/cache"
	"github.com/Keksclan/rawrcache/retry"
)

const probeKey = "rawrcache:check"

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and probe the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := newLogger(cmd, f)
			fmt.Fprintf(cmd.OutOrStdout(), "config ok: driver=%s enabled=%t default_ttl=%s groups=%d\n",
				f.Store.Driver, f.Enabled, formatTTL(f.DefaultTTL.Std()), len(f.Groups))

			store, closer, err := f.OpenStore()
			if err != nil {
				return err
			}
			defer closer.Close()

			timeout := f.Store.Timeout.Std()
			if timeout <= 0 {
				timeout = rawrcache.DefaultStoreTimeout
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 4*timeout)
			defer cancel()

			start := time.Now()
			if p := f.Retry.Policy(); p != nil {
				err = retry.Run(ctx, *p, func(ctx context.Context) error { return probe(ctx, store) })
			} else {
				err = probe(ctx, store)
			}
			if err != nil {
				return fmt.Errorf("store probe failed: %w", err)
			}
			log.Debug().Dur("took", time.Since(start)).Msg("store probe finished")
			fmt.Fprintf(cmd.OutOrStdout(), "store ok: round trip in %s\n", time.Since(start).Round(time.Microsecond))
			return nil
		},
	}
}

// probe writes, reads back and deletes a marker entry.
func probe(ctx context.Context, store cache.Store) error {
	if p, ok := store.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(ctx); err != nil {
			return err
		}
	}
	want := []byte(time.Now().UTC().Format(time.RFC3339Nano))
	if err := store.Set(ctx, probeKey, want, time.Minute); err != nil {
		return err
	}
	got, ok, err := store.Get(ctx, probeKey)
	if err != nil {
		return err
	}
	if !ok || string(got) != string(want) {
		return fmt.Errorf("read back %q, want %q", got, want)
	}
	return store.Delete(ctx, probeKey)
}
