package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/keycodec/pkg/base64"
	"github.com/ssargent/keycodec/pkg/hex"
)

type transcoder struct {
	name   string
	encode func([]byte) string
	decode func(string) ([]byte, error)
}

func newBase64Cmd() *cobra.Command {
	return newTranscodeCmd(transcoder{name: "base64", encode: base64.EncodeToString, decode: base64.DecodeString},
		`Encode and decode standard base64 (RFC 4648 alphabet, '=' padding).

Decoding also accepts input without padding.

Examples:
  keycodec base64 encode "Hello World"
  echo SGVsbG8gV29ybGQ= | keycodec base64 decode`)
}

func newHexCmd() *cobra.Command {
	return newTranscodeCmd(transcoder{name: "hex", encode: hex.EncodeToString, decode: hex.DecodeString},
		`Encode and decode hexadecimal. Encoding is lowercase; decoding accepts
either case.

Examples:
  keycodec hex encode abc
  keycodec hex decode 1F2F --output base64`)
}

func newTranscodeCmd(t transcoder, long string) *cobra.Command {
	parent := &cobra.Command{
		Use:   t.name,
		Short: fmt.Sprintf("Encode and decode %s", t.name),
		Long:  long,
	}

	encodeCmd := &cobra.Command{
		Use:   "encode [data]",
		Short: fmt.Sprintf("Encode the argument or stdin as %s", t.name),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.encode(data))
			return nil
		},
	}

	decodeCmd := &cobra.Command{
		Use:   "decode [text]",
		Short: fmt.Sprintf("Decode %s from the argument or stdin", t.name),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args)
			if err != nil {
				return err
			}
			data, err := t.decode(text)
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("output")
			return writeBytes(cmd, data, format)
		},
	}
	decodeCmd.Flags().StringP("output", "o", formatRaw, "Output format: raw, hex or base64")

	parent.AddCommand(encodeCmd, decodeCmd)
	return parent
}
