package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/4thel00z/consent/internal"
	"github.com/spf13/cobra"
)

type classifierFunc func(context.Context) (*internal.Classifier, error)

func NewClassifyCmd(classifier classifierFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <text>",
		Short: "Classify a reply to a consent request",
		Long:  `Print 1 for an affirmative reply, 0 for a negative one and 2 when it is indeterminate.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			explain, _ := cmd.Flags().GetBool("explain")

			c, err := classifier(cmd.Context())
			if err != nil {
				return err
			}

			text := strings.Join(args, " ")
			m, err := c.Nearest(cmd.Context(), text)
			if err != nil {
				return fmt.Errorf("classify: %w", err)
			}

			if asJSON {
				data := map[string]any{
					"category": m.Category.String(),
					"code":     m.Category.Code(),
				}
				if explain {
					ex, _ := c.Example(m.Position)
					data["nearest"] = ex.Text
					data["distance"] = m.Distance
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(data)
			}

			fmt.Fprintln(cmd.OutOrStdout(), m.Category.Code())
			if explain {
				ex, _ := c.Example(m.Position)
				fmt.Fprintf(cmd.OutOrStdout(), "%s (nearest %q, distance %.4f)\n", m.Category, ex.Text, m.Distance)
			}
			return nil
		},
	}

	cmd.Flags().Bool("explain", false, "Show the nearest corpus example")
	return cmd
}

func NewLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <text>",
		Short: "Detect whether a message means the user wants to leave",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			leave := internal.WantsToLeave(strings.Join(args, " "))

			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]bool{"leave": leave})
			}
			fmt.Fprintln(cmd.OutOrStdout(), leave)
			return nil
		},
	}
}
