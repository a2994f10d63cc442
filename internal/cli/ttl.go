package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTTLCmd() *cobra.Command {
	var group string
	cmd := &cobra.Command{
		Use:   "ttl",
		Short: "Show the TTL a write would get",
		Long: `Resolves the TTL for a write the way the service does: an explicit --ttl
wins, then the --group duration, then default_ttl. Nothing configured means
the entry never expires.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			policy := f.Settings().TTL
			if cmd.Flags().Changed("ttl") {
				d, _ := cmd.Flags().GetDuration("ttl")
				got, src := policy.Resolve(&d, group)
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", formatTTL(got), src)
				return nil
			}
			got, src := policy.Resolve(nil, group)
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", formatTTL(got), src)
			return nil
		},
	}
	cmd.Flags().StringVar(&group, "group", "", "TTL group name")
	cmd.Flags().Duration("ttl", 0, "explicit TTL (0 means never expire)")
	return cmd
}
