package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"docchat/internal/logger"
)

var editCmd = &cobra.Command{
	Use:   "edit [html-file]",
	Short: "Apply chat edits to an HTML document",
	Long: `Seed a chat session with an HTML document and send each --message in order.

Every reply is parsed for an EXPLANATION and an HTML section. Well-formed replies
replace the document; anything else leaves it untouched and the reply is printed
as the explanation. Explanations go to stderr, the final document to --output or
stdout.`,
	Example: `  # Bold the total and add a heading
  docchat edit invoice.html -m "make the total bold" -m "add a heading 'Invoice'"

  # Write the result and a PDF
  docchat edit invoice.html -m "translate to German" -o invoice.de.html --pdf invoice.de.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)

	editCmd.Flags().StringArrayP("message", "m", nil, "Edit instruction (repeatable)")
	editCmd.Flags().StringP("output", "o", "", "HTML output file path (default: stdout)")
	editCmd.Flags().String("pdf", "", "Also render the final HTML to this PDF file")
	_ = editCmd.MarkFlagRequired("message")
}

func runEdit(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("edit")

	messages, _ := cmd.Flags().GetStringArray("message")
	outputPath, _ := cmd.Flags().GetString("output")
	pdfPath, _ := cmd.Flags().GetString("pdf")

	source, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read HTML file: %w", err)
	}

	ctx, cancel := createContextWithTimeout(cmd.Context(), cfg.LLMTimeout*time.Duration(len(messages)+1), log)
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close OCR backend")
		}
	}()

	a.engine.SetHTML(ctx, string(source))

	applied := 0
	for i, message := range messages {
		turn := a.engine.Chat(ctx, message)
		if turn.Applied {
			applied++
		}
		log.Info().
			Int("turn", i+1).
			Bool("applied", turn.Applied).
			Msg("Edit turn completed")
		fmt.Fprintf(os.Stderr, "[%d] %s\n", i+1, turn.Explanation)
	}

	if applied == 0 {
		log.Warn().Int("messages", len(messages)).Msg("No edit was applied")
	}

	if err := writeOutput(outputPath, []byte(a.exporter.HTML()), log); err != nil {
		return err
	}

	if pdfPath == "" {
		return nil
	}
	pdf, err := a.exporter.PDF(ctx)
	if err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	return writeOutput(pdfPath, pdf, log)
}
