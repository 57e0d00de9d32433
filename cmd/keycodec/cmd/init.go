/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/ssargent/keycodec/pkg/config"
)

func newInitCmd() *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with a generated HMAC key",
		Long: `Write a configuration file with default settings and a freshly generated
HMAC key.

Examples:
  keycodec init
  keycodec init --config ./keycodec.yaml --data-dir ./data --schema tenant:u64,id:ksuid`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			force, _ := cmd.Flags().GetBool("force")
			if config.ConfigExists(configPath) && !force {
				fmt.Fprintf(cmd.OutOrStdout(), "Configuration already exists at %s. Use --force to overwrite.\n", configPath)
				return nil
			}

			dataDir, _ := cmd.Flags().GetString("data-dir")
			bootstrapped, err := config.BootstrapConfig(configPath, dataDir)
			if err != nil {
				return err
			}
			if schema, _ := cmd.Flags().GetString("schema"); schema != "" {
				bootstrapped.Storage.Schema = schema
				if err := bootstrapped.Validate(); err != nil {
					return errors.Wrap(err, "invalid --schema")
				}
				if err := config.SaveConfig(bootstrapped, configPath); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote configuration to %s\n", configPath)
			fmt.Fprintf(cmd.OutOrStdout(), "Data directory: %s\n", bootstrapped.DataDir)
			fmt.Fprintf(cmd.OutOrStdout(), "Key schema: %s\n", bootstrapped.Storage.Schema)
			return nil
		},
	}
	initCmd.Flags().Bool("force", false, "Overwrite an existing configuration")
	addSchemaFlag(initCmd)
	return initCmd
}
