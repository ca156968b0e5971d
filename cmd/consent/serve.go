package main

import (
	"fmt"

	"github.com/4thel00z/consent/internal/server"
	"github.com/spf13/cobra"
)

func NewServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP analyser",
		Long:  `Embed the corpus, then serve POST /api/analyseur_conversation, /healthz and /metrics until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.Config()
			if host, _ := cmd.Flags().GetString("host"); cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if port, _ := cmd.Flags().GetInt("port"); cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			classifier, err := a.Classifier(cmd.Context())
			if err != nil {
				return err
			}

			srv, err := server.New(server.ConfigFrom(cfg), classifier, a.metrics, a.log)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().String("host", "", "Listen host (overrides server.host)")
	cmd.Flags().Int("port", 0, "Listen port (overrides server.port)")
	return cmd
}
