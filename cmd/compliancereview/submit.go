package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"ComplianceReview/internal/domain"
	"ComplianceReview/internal/usecase"
)

var (
	submitNotify bool
	submitJSON   bool
)

var submitCmd = &cobra.Command{
	Use:   "submit <path>",
	Short: "Review a single grant proposal",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubmit,
}

func init() {
	submitCmd.Flags().BoolVar(&submitNotify, "notify", false, "Notify reviewers when the risk level requires it")
	submitCmd.Flags().BoolVar(&submitJSON, "json", false, "Print the workflow result as JSON")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	application, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(application)

	var spinner *pterm.SpinnerPrinter
	if !submitJSON {
		spinner, _ = pterm.DefaultSpinner.Start("Reviewing " + args[0])
	}

	res, runErr := application.Submit(cmd.Context(), args[0], submitNotify)

	if spinner != nil {
		if runErr != nil {
			spinner.Fail("Review failed")
		} else {
			spinner.Success("Review completed")
		}
	}

	if submitJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
		return runErr
	}

	fmt.Print(usecase.Summary(res))
	if res != nil && len(res.Resolutions) > 0 {
		printResolutions(res.Resolutions)
	}
	return runErr
}

func printResolutions(resolutions []domain.Resolution) {
	data := pterm.TableData{{"Capability", "Channel", "Attempts"}}
	for _, r := range resolutions {
		channel := r.Channel
		if channel == "" {
			channel = pterm.Red("none")
		}
		data = append(data, []string{r.Capability, channel, fmt.Sprint(len(r.Attempts))})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
