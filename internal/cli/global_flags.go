package cli

import "github.com/spf13/cobra"

type globalOptions struct {
	ConfigPath string
	Debug      bool
	ShowHidden bool
}

// addGlobalFlags adds persistent flags to the root command.
func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "Configuration file (default: OS config directory)")
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().Bool("show-hidden", false, "List reserved locations at the root")
}

// getGlobalOptions reads global flags.
func getGlobalOptions(cmd *cobra.Command) globalOptions {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	debug, _ := cmd.Root().PersistentFlags().GetBool("debug")
	hidden, _ := cmd.Root().PersistentFlags().GetBool("show-hidden")
	return globalOptions{ConfigPath: path, Debug: debug, ShowHidden: hidden}
}
