package main

import (
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Review every document that arrives in the inbox directory",
	Long: `watch monitors the configured inbox and submits each new document once.
Documents whose content was reviewed before are skipped. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		application, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer closeApp(application)

		return application.Watch(cmd.Context())
	},
}
