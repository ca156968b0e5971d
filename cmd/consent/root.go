package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func NewRootCmd(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "consent",
		Short:         "French consent and exit-intent analyser",
		Long:          `Classify free-text French replies to a consent request and detect when a user wants to leave the conversation.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd)
	setHelpWithExternals(rootCmd)

	if a != nil {
		rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		}
		addSubcommands(rootCmd, a)
	}

	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", defaultConfigPath, "Path to the YAML config file")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().String("log-level", "info", "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().Bool("log-json", false, "Log in JSON format")
}

func addSubcommands(root *cobra.Command, a *app) {
	root.AddCommand(
		NewServeCmd(a),
		NewClassifyCmd(a.Classifier),
		NewLeaveCmd(),
		NewDispatchCmd(a.Dispatch),
		NewCorpusCmd(a),
		NewProviderCmd(a),
		NewPluginsCmd(),
	)
}

func setHelpWithExternals(cmd *cobra.Command) {
	defaultHelp := cmd.HelpFunc()

	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		defaultHelp(c, args)
		printExternalCommands(c)
	})
}

func printExternalCommands(cmd *cobra.Command) {
	plugins := discoverPlugins(os.Getenv("PATH"))
	if len(plugins) == 0 {
		return
	}

	fmt.Fprintln(cmd.OutOrStdout(), "\nPlugins (consent-*):")
	for _, p := range plugins {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", p.Name)
	}
}
