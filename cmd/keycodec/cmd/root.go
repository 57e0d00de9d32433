/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/keycodec/pkg/base64"
	"github.com/ssargent/keycodec/pkg/config"
	"github.com/ssargent/keycodec/pkg/di"
	"github.com/ssargent/keycodec/pkg/hex"
)

var (
	container *di.Container
	cfg       *config.Config
)

// SetContainer injects the dependency container used by every command
func SetContainer(c *di.Container) {
	container = c
}

// NewRootCmd builds the keycodec command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "keycodec",
		Short: "keycodec - order-preserving key encoding toolkit",
		Long: `keycodec encodes typed values into binary keys whose byte order matches
the order of the values, and works with those keys from the command line:
base64 and hex transcoding, composite key encoding and decoding, a
pebble-backed record store, and keyed hashing.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = container.Logger().Sync()
		},
	}

	rootCmd.PersistentFlags().String("config", config.GetDefaultConfigPath(), "Path to the configuration file")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "", "Data directory for the store (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(
		newInitCmd(),
		newBase64Cmd(),
		newHexCmd(),
		newKeyCmd(),
		newPutCmd(),
		newGetCmd(),
		newScanCmd(),
		newDeleteCmd(),
		newDigestCmd(),
		newHMACCmd(),
		newHKDFCmd(),
		newKeygenCmd(),
	)
	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file when it exists, applies flag overrides
// and installs the logger
func loadConfig(cmd *cobra.Command, _ []string) error {
	if container == nil {
		container = di.NewContainer()
	}

	configPath, _ := cmd.Flags().GetString("config")
	loaded := config.DefaultConfig()
	if config.ConfigExists(configPath) {
		var err error
		if loaded, err = config.LoadConfig(configPath); err != nil {
			return err
		}
	}
	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		loaded.DataDir = dataDir
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		loaded.Logging.Level = level
	}
	if err := loaded.Validate(); err != nil {
		return errors.Wrapf(err, "config %s", configPath)
	}

	logger, err := loaded.NewLogger()
	if err != nil {
		return err
	}
	container.SetLogger(logger)
	logger.Debug("configuration loaded",
		zap.String("path", configPath),
		zap.String("data_dir", loaded.DataDir),
		zap.String("schema", loaded.Storage.Schema))

	cfg = loaded
	return nil
}

// readInput returns the single argument, or all of stdin when there is none
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) > 0 {
		return []byte(args[0]), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, errors.Wrap(err, "reading stdin")
	}
	return data, nil
}

// readText is readInput for textual encodings, with surrounding whitespace
// removed
func readText(cmd *cobra.Command, args []string) (string, error) {
	data, err := readInput(cmd, args)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

const (
	formatRaw    = "raw"
	formatHex    = "hex"
	formatBase64 = "base64"
)

// writeBytes prints data as raw bytes, hex or base64
func writeBytes(cmd *cobra.Command, data []byte, format string) error {
	out := cmd.OutOrStdout()
	var err error
	switch format {
	case formatRaw:
		_, err = out.Write(data)
	case formatHex:
		_, err = io.WriteString(out, hex.EncodeToString(data)+"\n")
	case formatBase64:
		_, err = io.WriteString(out, base64.EncodeToString(data)+"\n")
	default:
		return errors.Newf("unknown output format %q, want raw, hex or base64", format)
	}
	return err
}

// parseBytes decodes a hex or base64 argument
func parseBytes(text, format string) ([]byte, error) {
	switch format {
	case formatHex:
		return hex.DecodeString(text)
	case formatBase64:
		return base64.DecodeString(text)
	}
	return nil, errors.Newf("unknown input format %q, want hex or base64", format)
}
