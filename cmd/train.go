package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func getTrainCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train and save a model from the corpus",
		Long: `Split the merged corpus file into genre directories if needed, build the
training table, select parameters by k-fold cross-validation and save the
best model. Prints the model statistics as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.service()
			if err != nil {
				return err
			}
			stats, err := svc.Classify(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		},
	}
}
