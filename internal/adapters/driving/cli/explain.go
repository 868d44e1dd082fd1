package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var explainCmd = &cobra.Command{
	Use:   "explain [text...]",
	Short: "Explain a passage in plain language",
	Long: `Explain a passage of text: a plain-language explanation, a short
summary and a breakdown of any jargon. With no arguments the passage is read
from standard input.`,
	RunE: runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	if explainer == nil {
		return errors.New("explainer not configured")
	}

	text := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read passage: %w", err)
		}
		text = string(data)
	}

	explanation, err := explainer.Explain(cmd.Context(), text)
	if err != nil {
		return fmt.Errorf("failed to explain passage: %w", err)
	}

	section(cmd, "Explained simply", explanation.ELI5)
	section(cmd, "Summary", explanation.Summary)
	section(cmd, "Jargon", explanation.Jargon)
	return nil
}

func section(cmd *cobra.Command, title, body string) {
	cmd.Println(headingStyle.Render(title))
	if strings.TrimSpace(body) == "" {
		body = mutedStyle.Render("(none)")
	}
	cmd.Println(body)
	cmd.Println()
}
