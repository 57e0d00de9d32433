package cmd

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/keycodec/pkg/keyspec"
	"github.com/ssargent/keycodec/pkg/storage"
)

// withStore opens the configured store for the duration of fn
func withStore(cmd *cobra.Command, fn func(s *storage.Store, spec *keyspec.Spec) error) error {
	spec, err := specFor(cmd)
	if err != nil {
		return err
	}
	s, err := container.GetStoreFactory().Open(cfg.DataDir, spec, cfg.Storage.Sync)
	if err != nil {
		return err
	}
	if err := fn(s, spec); err != nil {
		_ = s.Close()
		return err
	}
	return s.Close()
}

// completeKey encodes one textual value per schema field
func completeKey(spec *keyspec.Spec, values []string) ([]byte, error) {
	if n := len(spec.Fields()); len(values) != n {
		return nil, errors.Newf("schema %s needs %d key values, got %d", spec, n, len(values))
	}
	return spec.Encode(values...)
}

func newPutCmd() *cobra.Command {
	putCmd := &cobra.Command{
		Use:   "put <key value>... <value>",
		Short: "Store a value under a composite key",
		Long: `Store a value under the key built from the given field values. The
last argument is the value; the ones before it are the key fields.

Example:
  keycodec put -s tenant:u64,name:ostr 7 alice '{"role":"admin"}'`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *storage.Store, spec *keyspec.Spec) error {
				key, err := completeKey(spec, args[:len(args)-1])
				if err != nil {
					return err
				}
				if err := s.Put(key, []byte(args[len(args)-1])); err != nil {
					return err
				}
				container.Logger().Debug("put", zap.String("key", spec.Schema().Format(key)))
				fmt.Fprintf(cmd.OutOrStdout(), "Successfully put key %s\n", spec.Schema().Format(key))
				return nil
			})
		},
	}
	addSchemaFlag(putCmd)
	return putCmd
}

func newGetCmd() *cobra.Command {
	getCmd := &cobra.Command{
		Use:   "get <key value>...",
		Short: "Get the value stored under a composite key",
		Long: `Get the value stored under the key built from the given field values.

Example:
  keycodec get -s tenant:u64,name:ostr 7 alice`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *storage.Store, spec *keyspec.Spec) error {
				key, err := completeKey(spec, args)
				if err != nil {
					return err
				}
				rec, err := s.Get(key)
				if err != nil {
					return err
				}
				if meta, _ := cmd.Flags().GetBool("meta"); meta {
					fmt.Fprintf(cmd.OutOrStdout(), "written %s\n", rec.Timestamp.Format(time.RFC3339Nano))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", rec.Value)
				return nil
			})
		},
	}
	addSchemaFlag(getCmd)
	getCmd.Flags().Bool("meta", false, "Also print when the record was written")
	return getCmd
}

func newDeleteCmd() *cobra.Command {
	deleteCmd := &cobra.Command{
		Use:   "delete <key value>...",
		Short: "Delete the record under a composite key",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *storage.Store, spec *keyspec.Spec) error {
				key, err := completeKey(spec, args)
				if err != nil {
					return err
				}
				if err := s.Delete(key); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted key %s\n", spec.Schema().Format(key))
				return nil
			})
		},
	}
	addSchemaFlag(deleteCmd)
	return deleteCmd
}

func newScanCmd() *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan [key value]...",
		Short: "List records whose key starts with the given field values",
		Long: `List records in key order. Giving the leading field values restricts
the scan to keys that share them.

Examples:
  keycodec scan -s tenant:u64,name:ostr
  keycodec scan -s tenant:u64,name:ostr 7 --limit 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return withStore(cmd, func(s *storage.Store, spec *keyspec.Spec) error {
				prefix, err := spec.Encode(args...)
				if err != nil {
					return err
				}
				n := 0
				err = s.Scan(prefix, func(key []byte, rec storage.Record) bool {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", spec.Schema().Format(key), rec.Value)
					n++
					return limit <= 0 || n < limit
				})
				if err != nil {
					return err
				}
				container.Logger().Debug("scan finished", zap.Int("records", n))
				return nil
			})
		},
	}
	addSchemaFlag(scanCmd)
	scanCmd.Flags().Int("limit", 0, "Stop after this many records (0 for no limit)")
	return scanCmd
}
