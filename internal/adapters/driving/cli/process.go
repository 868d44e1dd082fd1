package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/readwell/internal/connectors/filesystem"
	"github.com/custodia-labs/readwell/internal/core/domain"
)

var (
	processTitle    string
	processFileName string
	processWait     bool
)

// progressInterval is how often a waiting command polls document progress.
var progressInterval = 250 * time.Millisecond

var processCmd = &cobra.Command{
	Use:   "process <path|url>...",
	Short: "Process PDFs into readable markdown",
	Long: `Submit one or more PDFs for processing. Each argument is either a local
file or an http(s) URL. Remote URLs must match the upload allowlist.

By default the command waits and reports progress until every document has
finished. Use --wait=false to return as soon as the documents are queued.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVar(&processTitle, "title", "", "Document title (single document only)")
	processCmd.Flags().StringVar(&processFileName, "file-name", "", "Original file name (single document only)")
	processCmd.Flags().BoolVar(&processWait, "wait", true, "Wait for processing to finish")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if len(args) > 1 && (processTitle != "" || processFileName != "") {
		return errors.New("--title and --file-name apply to a single document")
	}
	ownerID, err := owner()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var docs []*domain.Document
	for _, arg := range args {
		locator, source, err := filesystem.Resolve(arg)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", arg, err)
		}

		fileName := processFileName
		if fileName == "" && source == domain.SourceUpload {
			fileName = filepath.Base(filesystem.LocalPath(locator))
		}

		doc, err := ingestService.Submit(ctx, domain.SubmitRequest{
			OwnerID:   ownerID,
			SourceURL: locator,
			FileName:  fileName,
			Title:     processTitle,
			Source:    source,
		})
		if err != nil {
			return fmt.Errorf("failed to submit %s: %w", arg, err)
		}
		cmd.Printf("Queued %s  %s\n", doc.ID, doc.Title)
		docs = append(docs, doc)
	}

	if !processWait {
		return nil
	}
	return waitForDocuments(cmd, docs)
}

// waitForDocuments reports progress for docs until every run has finished,
// then prints the final status of each. It fails if any document failed.
func waitForDocuments(cmd *cobra.Command, docs []*domain.Document) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		reportProgress(ctx, cmd, docs)
	}()

	ingestService.Wait()
	cancel()
	<-done

	failed := 0
	for _, doc := range docs {
		current, err := currentDocument(cmd.Context(), doc)
		if err != nil {
			return err
		}
		cmd.Printf("%s  %s  %s\n", current.ID, statusBadge(current.Status), current.Title)
		if current.Status == domain.StatusFailed {
			cmd.Printf("  %s\n", errorStyle.Render(current.Error))
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(docs))
	}
	return nil
}

func reportProgress(ctx context.Context, cmd *cobra.Command, docs []*domain.Document) {
	if documentService == nil {
		return
	}

	last := make(map[string]int, len(docs))
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, doc := range docs {
				current, err := documentService.Get(ctx, doc.ID)
				if err != nil {
					continue
				}
				if p, seen := last[doc.ID]; seen && p == current.Progress {
					continue
				}
				last[doc.ID] = current.Progress
				cmd.Printf("%s  %s\n", doc.ID, progressBar(current.Progress, 20))
			}
		}
	}
}

func currentDocument(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	if documentService == nil {
		return doc, nil
	}
	current, err := documentService.Get(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", doc.ID, err)
	}
	return current, nil
}
