package cmd

import (
	"crypto/rand"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/ssargent/keycodec/pkg/hasher"
	"github.com/ssargent/keycodec/pkg/hex"
)

var algorithms = map[string]hasher.Func{
	"md5":         hasher.MD5,
	"sha1":        hasher.SHA1,
	"sha256":      hasher.SHA256,
	"sha512":      hasher.SHA512,
	"blake2b-256": hasher.BLAKE2b256,
	"blake2b-512": hasher.BLAKE2b512,
}

func algorithmNames() string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func algorithmFor(cmd *cobra.Command) (hasher.Func, error) {
	name, _ := cmd.Flags().GetString("algo")
	f, ok := algorithms[strings.ToLower(name)]
	if !ok {
		return nil, errors.Newf("unknown hash algorithm %q, want one of %s", name, algorithmNames())
	}
	return f, nil
}

func addAlgoFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("algo", "a", "sha256", "Hash algorithm: "+algorithmNames())
}

func newDigestCmd() *cobra.Command {
	digestCmd := &cobra.Command{
		Use:   "digest [data]",
		Short: "Hash the argument or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := algorithmFor(cmd)
			if err != nil {
				return err
			}
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			sum, err := hasher.Sum(f, data)
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("output")
			return writeBytes(cmd, sum, format)
		},
	}
	addAlgoFlag(digestCmd)
	digestCmd.Flags().StringP("output", "o", formatHex, "Output format: hex, base64 or raw")
	return digestCmd
}

func newHMACCmd() *cobra.Command {
	hmacCmd := &cobra.Command{
		Use:   "hmac [message]",
		Short: "Compute a keyed hash of the argument or stdin",
		Long: `Compute an HMAC (RFC 2104) of the argument or stdin.

The key is given in hex with --key, or taken from security.hmac_key in the
configuration (see "keycodec init").

Example:
  keycodec hmac --key 4a656665 --algo sha256 "what do ya want for nothing?"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := algorithmFor(cmd)
			if err != nil {
				return err
			}
			keyText, _ := cmd.Flags().GetString("key")
			if keyText == "" {
				keyText = cfg.Security.HMACKey
			}
			if keyText == "" || keyText == "auto" {
				return errors.New("no hmac key: pass --key or run keycodec init")
			}
			key, err := hex.DecodeString(keyText)
			if err != nil {
				return errors.Wrap(err, "hmac key")
			}
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			mac, err := hasher.HMAC(f, key, data)
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("output")
			return writeBytes(cmd, mac, format)
		},
	}
	addAlgoFlag(hmacCmd)
	hmacCmd.Flags().StringP("key", "k", "", "HMAC key in hex")
	hmacCmd.Flags().StringP("output", "o", formatHex, "Output format: hex, base64 or raw")
	return hmacCmd
}

func newHKDFCmd() *cobra.Command {
	hkdfCmd := &cobra.Command{
		Use:   "hkdf",
		Short: "Derive key material with HKDF (RFC 5869)",
		Example: `  keycodec hkdf --ikm 0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b \
    --salt 000102030405060708090a0b0c --info f0f1f2f3f4f5f6f7f8f9 --length 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := algorithmFor(cmd)
			if err != nil {
				return err
			}
			var material [3][]byte
			for i, name := range []string{"ikm", "salt", "info"} {
				text, _ := cmd.Flags().GetString(name)
				if material[i], err = hex.DecodeString(text); err != nil {
					return errors.Wrapf(err, "--%s", name)
				}
			}
			length, _ := cmd.Flags().GetInt("length")
			okm, err := hasher.HKDF(f, material[1], material[0], material[2], length)
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("output")
			return writeBytes(cmd, okm, format)
		},
	}
	addAlgoFlag(hkdfCmd)
	hkdfCmd.Flags().String("ikm", "", "Input keying material in hex (required)")
	hkdfCmd.Flags().String("salt", "", "Salt in hex")
	hkdfCmd.Flags().String("info", "", "Context info in hex")
	hkdfCmd.Flags().IntP("length", "l", 32, "Output length in bytes")
	hkdfCmd.Flags().StringP("output", "o", formatHex, "Output format: hex, base64 or raw")
	if err := hkdfCmd.MarkFlagRequired("ikm"); err != nil {
		panic(err)
	}
	return hkdfCmd
}

func newKeygenCmd() *cobra.Command {
	keygenCmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate random key material",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			length, _ := cmd.Flags().GetInt("length")
			if length <= 0 {
				return errors.Newf("--length must be positive, got %d", length)
			}
			key := make([]byte, length)
			if _, err := rand.Read(key); err != nil {
				return errors.Wrap(err, "failed to generate key")
			}
			format, _ := cmd.Flags().GetString("output")
			if format == formatRaw {
				return errors.New("refusing to print raw key bytes, use hex or base64")
			}
			return writeBytes(cmd, key, format)
		},
	}
	keygenCmd.Flags().IntP("length", "l", 32, "Key length in bytes")
	keygenCmd.Flags().StringP("output", "o", formatHex, "Output format: hex or base64")
	return keygenCmd
}
