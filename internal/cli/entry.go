package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/Keksclan/rawrcache"
	"github.com/Keksclan/rawrcache/codec"
	"github.com/Keksclan/rawrcache/keytmpl"
)

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get TEMPLATE [name=value...]",
		Short: "Print the entry stored under a key",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}
			key, err := keytmpl.Format(args[0], params)
			if err != nil {
				return err
			}

			f, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, closer, err := f.OpenStore()
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx := cmd.Context()
			if t := f.Store.Timeout.Std(); t > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, t)
				defer cancel()
			}
			data, ok, err := store.Get(ctx, key)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s: not found", key)
			}
			fmt.Fprintln(cmd.OutOrStdout(), describe(data))
			return nil
		},
	}
}

// describe renders a stored value: strings and protobuf messages in full,
// other encodings by size.
func describe(data []byte) string {
	v, err := codec.DecodeAny(data)
	if err != nil {
		return fmt.Sprintf("<%d bytes: %v>", len(data), err)
	}
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return fmt.Sprintf("%q", x)
	case proto.Message:
		b, err := protojson.Marshal(x)
		if err != nil {
			return fmt.Sprintf("%v", x)
		}
		return string(b)
	}
	return fmt.Sprint(v)
}

func newEvictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evict TEMPLATE [name=value...]",
		Short: "Remove the entry stored under a key",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}
			svc, _, closeStore, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			if !svc.Enabled() {
				cmd.PrintErrln("caching is disabled in the configuration, nothing evicted")
				return nil
			}
			if err := svc.Evict(cmd.Context(), args[0], rawrcache.Args(params)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "evicted")
			return nil
		},
	}
}
