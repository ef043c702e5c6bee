package main

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func getPredictCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "predict [lyrics|-]",
		Short: "Predict the genre of lyrics",
		Long: `Predict the genre of lyrics given as arguments, or read from stdin when
the only argument is "-" or no argument is given. Prints the prediction as JSON.

Examples:
  lyrics predict "take me home country roads"
  cat song.txt | lyrics predict -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, "\n")
			if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = string(b)
			}
			svc, err := c.service()
			if err != nil {
				return err
			}
			pred, err := svc.Predict(cmd.Context(), text)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(pred)
		},
	}
}
