package cmd

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/ssargent/keycodec/pkg/keyspec"
)

// specFor parses --schema, falling back to the configured storage schema
func specFor(cmd *cobra.Command) (*keyspec.Spec, error) {
	text, _ := cmd.Flags().GetString("schema")
	if text == "" {
		text = cfg.Storage.Schema
	}
	return keyspec.Parse(text)
}

func addSchemaFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("schema", "s", "",
		`Key schema, e.g. "tenant:u64,name:ostr,id:ksuid" (defaults to storage.schema from the config)`)
}

func newKeyCmd() *cobra.Command {
	keyCmd := &cobra.Command{
		Use:   "key",
		Short: "Encode, decode and compare composite keys",
		Long: `Work with composite keys described by a schema: a comma separated list of
fields, each a type optionally preceded by "name:".

Byte fields take hex, or base64 after a "b64:" prefix. Times are RFC 3339.
Run "keycodec key types" for the list of field types.

Examples:
  keycodec key encode -s tenant:u64,name:ostr 7 alice
  keycodec key decode -s tenant:u64,name:ostr 0000000000000007616c69636500000005
  keycodec key compare -s i32 7fffffff 80000000`,
	}

	encodeCmd := &cobra.Command{
		Use:   "encode <value>...",
		Short: "Encode field values into a key or key prefix",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := specFor(cmd)
			if err != nil {
				return err
			}
			key, err := spec.Encode(args...)
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("output")
			return writeBytes(cmd, key, format)
		},
	}
	addSchemaFlag(encodeCmd)
	encodeCmd.Flags().StringP("output", "o", formatHex, "Output format: hex, base64 or raw")

	decodeCmd := &cobra.Command{
		Use:   "decode <key>",
		Short: "Decode a key or key prefix into its fields",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := specFor(cmd)
			if err != nil {
				return err
			}
			key, err := readKey(cmd, args)
			if err != nil {
				return err
			}
			values, err := spec.Decode(key)
			if err != nil {
				return err
			}
			fields := spec.Fields()
			for i, v := range values {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", fields[i].Name, v)
			}
			return nil
		},
	}
	addSchemaFlag(decodeCmd)
	decodeCmd.Flags().StringP("input", "i", formatHex, "Input format: hex or base64")

	compareCmd := &cobra.Command{
		Use:   "compare <key> <key>",
		Short: "Compare two keys in schema order, printing -1, 0 or 1",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := specFor(cmd)
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("input")
			a, err := parseBytes(args[0], format)
			if err != nil {
				return err
			}
			b, err := parseBytes(args[1], format)
			if err != nil {
				return err
			}
			for _, key := range [][]byte{a, b} {
				if _, err := spec.Schema().DecodePrefix(key); err != nil {
					return errors.Wrapf(err, "invalid key %x", key)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), spec.Schema().Compare(a, b))
			return nil
		},
	}
	addSchemaFlag(compareCmd)
	compareCmd.Flags().StringP("input", "i", formatHex, "Input format: hex or base64")

	typesCmd := &cobra.Command{
		Use:   "types",
		Short: "List the field types a schema may use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(keyspec.Types(), "\n"))
			return nil
		},
	}

	keyCmd.AddCommand(encodeCmd, decodeCmd, compareCmd, typesCmd)
	return keyCmd
}

func readKey(cmd *cobra.Command, args []string) ([]byte, error) {
	text, err := readText(cmd, args)
	if err != nil {
		return nil, err
	}
	format, _ := cmd.Flags().GetString("input")
	return parseBytes(text, format)
}
