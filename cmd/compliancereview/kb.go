package main

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var kbTop int

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Inspect the regulation knowledge base",
}

var kbSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search executive orders relevant to a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer closeApp(application)

		docs, resolution, err := application.SearchKnowledge(cmd.Context(), strings.Join(args, " "), kbTop)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			pterm.Warning.Println("No matching regulations")
			return nil
		}

		pterm.Info.Printf("Results from %s\n", resolution.Channel)
		data := pterm.TableData{{"Number", "Title", "Relevance"}}
		for _, d := range docs {
			data = append(data, []string{d.Number, d.Title, fmt.Sprintf("%.1f", d.Relevance)})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}

func init() {
	kbSearchCmd.Flags().IntVar(&kbTop, "top", 0, "Maximum number of results (defaults to search.top)")
	kbCmd.AddCommand(kbSearchCmd)
}
