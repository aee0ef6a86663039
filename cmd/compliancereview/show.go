package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ComplianceReview/internal/usecase"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show <digest|path>",
	Short: "Print the stored review of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer closeApp(application)

		res, err := application.Show(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if showJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		fmt.Print(usecase.Summary(&res))
		if len(res.Resolutions) > 0 {
			printResolutions(res.Resolutions)
		}
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print the stored workflow result as JSON")
}
