package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// sweeper is implemented by stores that keep expired entries on disk until
// they are swept.
type sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired entries from a bolt store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, closer, err := f.OpenStore()
			if err != nil {
				return err
			}
			defer closer.Close()

			sw, ok := store.(sweeper)
			if !ok {
				return fmt.Errorf("store driver %q keeps no expired entries to sweep", f.Store.Driver)
			}
			start := time.Now()
			n, err := sw.Sweep(cmd.Context())
			if err != nil {
				return fmt.Errorf("sweep: %w", err)
			}
			newLogger(cmd, f).Debug().Int("removed", n).Dur("took", time.Since(start)).Msg("sweep finished")
			fmt.Fprintf(cmd.OutOrStdout(), "swept %d expired entries\n", n)
			return nil
		},
	}
}
