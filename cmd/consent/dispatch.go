package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/4thel00z/consent/internal"
	"github.com/spf13/cobra"
)

type dispatchFunc func(context.Context) (*internal.DispatchUseCase, error)

func NewDispatchCmd(dispatch dispatchFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch <action> <text>",
		Short: "Run an analyser action as the HTTP endpoint does",
		Long: `Run one of recueil_consentement, positive_negative_reponse or
quitter_conversation and print the {"action": result} document.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := internal.ParseAction(args[0])
			if err != nil {
				return err
			}

			// Exit intent needs no embeddings; skip building the classifier.
			var uc *internal.DispatchUseCase
			if action == internal.ActionQuitterConversation {
				uc = internal.NewDispatchUseCase(nil, nil, nil)
			} else if uc, err = dispatch(cmd.Context()); err != nil {
				return err
			}

			out, err := uc.Execute(cmd.Context(), internal.DispatchInput{
				Action: action.String(),
				Text:   strings.Join(args[1:], " "),
			})
			if err != nil {
				return fmt.Errorf("dispatch %s: %w", action, err)
			}

			return json.NewEncoder(cmd.OutOrStdout()).Encode(out.Body())
		},
	}
}
