package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/followup-engine/generic"
	"github.com/warp/followup-engine/leads"
)

var parseSave bool

var parseCmd = &cobra.Command{
	Use:   "parse [file|-]",
	Short: "Parse a lead dump and print the leads as JSON",
	Long:  "Reads pasted lead text from a file, or stdin when the argument is '-' or missing. With --save the leads are imported as clients.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(cmd, args)
		if err != nil {
			return err
		}

		found := leads.ParseText(string(raw))
		if found == nil {
			found = []generic.Lead{}
		}
		zap.L().Debug("parsed leads", zap.Int("leads", len(found)))

		if parseSave {
			svc, store, err := openService()
			if err != nil {
				return err
			}
			defer store.Close()
			if _, err := svc.ImportLeads(cmd.Context(), found); err != nil {
				return eris.Wrap(err, "import leads")
			}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(found)
	},
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		return raw, eris.Wrap(err, "read stdin")
	}
	raw, err := os.ReadFile(args[0])
	return raw, eris.Wrapf(err, "read %s", args[0])
}

func init() {
	parseCmd.Flags().BoolVar(&parseSave, "save", false, "import the parsed leads as clients")
	rootCmd.AddCommand(parseCmd)
}
