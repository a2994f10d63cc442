package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Keksclan/rawrcache/keytmpl"
)

func newKeyCmd() *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "key TEMPLATE [name=value...]",
		Short: "Expand a key template",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				for _, name := range keytmpl.Placeholders(args[0]) {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}
			key, err := keytmpl.Format(args[0], params)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "placeholders", false, "list the template's placeholders instead of expanding it")
	return cmd
}
