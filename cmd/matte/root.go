package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	download "github.com/matteworks/matte-server/cmd/matte/download"
	run "github.com/matteworks/matte-server/cmd/matte/run"
	"github.com/matteworks/matte-server/internal/config"
)

const mattePrefix = "MATTE"

var Cmd = &cobra.Command{
	Use:   "matte",
	Short: "Matteworks CLI",
	Long:  "A self-hosted background removal server. Runs image matting models locally and serves them over HTTP",

	// Runs before this command and any subcommands
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Set global viper options
		viper.SetEnvPrefix(mattePrefix)
		viper.SetEnvKeyReplacer(strings.NewReplacer(
			`-`, `_`, // convert hyphens to underscores
			`.`, `_`, // convert dots to underscores
		))
		viper.AutomaticEnv()

		// Bind all flags from the current command persistent parent flags
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}

		if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
			return err
		}

		// Load config and env files
		if err := config.LoadEnvAndConfigFiles(); err != nil {
			return err
		}

		return nil
	},
}

func Execute() {
	if err := Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pflags := Cmd.PersistentFlags()

	pflags.String("matte-home", "", "Path to the matte home directory")
	pflags.String("config-file", "", "Path to the config file")
	pflags.String("env-file", "", "Path to the env file")

	viper.BindPFlag("matte_home", pflags.Lookup("matte-home"))
	viper.BindPFlag("config_file", pflags.Lookup("config-file"))
	viper.BindPFlag("env_file", pflags.Lookup("env-file"))

	// Add subcommands
	Cmd.AddCommand(run.Cmd, download.Cmd, apiKeyCmd)
	Cmd.CompletionOptions.HiddenDefaultCmd = true
}
