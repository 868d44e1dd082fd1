package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/readwell/internal/adapters/driving/tui"
)

// runReader starts the interactive reader. Tests replace it.
var runReader = tui.Run

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Browse and read documents interactively",
	Long: `Open the interactive reader: a list of your documents that refreshes
while they are being processed, a markdown viewer, and an explain prompt.`,
	Args: cobra.NoArgs,
	RunE: runRead,
}

func init() {
	rootCmd.AddCommand(readCmd)
}

func runRead(cmd *cobra.Command, _ []string) error {
	if documentService == nil || explainer == nil {
		return errors.New("services not configured")
	}
	owner, err := owner()
	if err != nil {
		return err
	}

	return runReader(cmd.Context(), &tui.Ports{
		Documents: documentService,
		Explainer: explainer,
		Owner:     owner,
	})
}
