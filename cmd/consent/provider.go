package main

import (
	"fmt"
	"sort"

	"github.com/4thel00z/consent/internal"
	"github.com/spf13/cobra"
)

func NewProviderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provider",
		Short: "Manage LLM providers used by corpus expand",
		Long:  `List, add, remove, and select LLM providers in the config file.`,
	}

	cmd.AddCommand(
		newProviderListCmd(a),
		newProviderAddCmd(a),
		newProviderRemoveCmd(a),
		newProviderDefaultCmd(a),
		newProviderTestCmd(a),
	)

	return cmd
}

func newProviderListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured providers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.Config()
			if len(cfg.Providers) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No providers configured.")
				return nil
			}

			names := make([]string, 0, len(cfg.Providers))
			for name := range cfg.Providers {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				marker := " "
				if name == cfg.DefaultProvider {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", marker, name, cfg.Providers[name].Model)
			}
			return nil
		},
	}
}

func newProviderAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a provider",
		Long:  `Add an openai, anthropic or openrouter provider.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			apiKey, _ := cmd.Flags().GetString("api-key")
			baseURL, _ := cmd.Flags().GetString("base-url")
			model, _ := cmd.Flags().GetString("model")

			// Edit the file as written, without environment overrides.
			cfg, err := internal.LoadConfig(a.cfgPath)
			if err != nil {
				return err
			}
			cfg.Providers[name] = internal.ProviderConfig{
				APIKey:  apiKey,
				BaseURL: baseURL,
				Model:   model,
			}
			if cfg.DefaultProvider == "" {
				cfg.DefaultProvider = name
			}

			if err := internal.SaveConfig(a.cfgPath, cfg); err != nil {
				return fmt.Errorf("add provider: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added provider %s\n", name)
			return nil
		},
	}

	cmd.Flags().String("api-key", "", "API key")
	cmd.Flags().String("base-url", "", "Base URL")
	cmd.Flags().String("model", "", "Model name")
	return cmd
}

func newProviderRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := internal.LoadConfig(a.cfgPath)
			if err != nil {
				return err
			}
			if _, ok := cfg.Providers[args[0]]; !ok {
				return fmt.Errorf("provider %q not configured", args[0])
			}
			delete(cfg.Providers, args[0])
			if cfg.DefaultProvider == args[0] {
				cfg.DefaultProvider = ""
			}

			if err := internal.SaveConfig(a.cfgPath, cfg); err != nil {
				return fmt.Errorf("remove provider: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed provider %s\n", args[0])
			return nil
		},
	}
}

func newProviderDefaultCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "default <name>",
		Short: "Set default provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := internal.LoadConfig(a.cfgPath)
			if err != nil {
				return err
			}
			if _, ok := cfg.Providers[args[0]]; !ok {
				return fmt.Errorf("provider %q not configured", args[0])
			}
			cfg.DefaultProvider = args[0]

			if err := internal.SaveConfig(a.cfgPath, cfg); err != nil {
				return fmt.Errorf("set default: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default provider set to %s\n", args[0])
			return nil
		},
	}
}

func newProviderTestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test [name]",
		Short: "Send a short prompt to a provider and print its reply",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			prompt, _ := cmd.Flags().GetString("prompt")

			provider, err := internal.NewProvider(cmd.Context(), a.Config(), name)
			if err != nil {
				return err
			}

			reply, err := provider.Complete(cmd.Context(), prompt)
			if err != nil {
				return fmt.Errorf("%s: %w", provider.Name(), err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}

	cmd.Flags().String("prompt", "Réponds simplement « oui ».", "Prompt to send")
	return cmd
}
