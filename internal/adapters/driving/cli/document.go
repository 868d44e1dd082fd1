package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/readwell/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"doc"},
	Short:   "Manage processed documents",
	Long:    `List, read, inspect, retry or delete processed documents.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentContentCmd = &cobra.Command{
	Use:   "content [doc-id]",
	Short: "Print document markdown",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentContent,
}

var documentImagesCmd = &cobra.Command{
	Use:   "images [doc-id]",
	Short: "List extracted images",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentImages,
}

var documentRetryCmd = &cobra.Command{
	Use:   "retry [doc-id]",
	Short: "Process a document again",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentRetry,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document with its content and images",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var (
	renderContent bool
	retryWait     bool
	imagesURLs    bool
)

func init() {
	documentContentCmd.Flags().BoolVar(&renderContent, "render", false, "Render markdown for the terminal")
	documentImagesCmd.Flags().BoolVar(&imagesURLs, "urls", false, "Print fetchable URLs")
	documentRetryCmd.Flags().BoolVar(&retryWait, "wait", true, "Wait for processing to finish")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentContentCmd)
	documentCmd.AddCommand(documentImagesCmd)
	documentCmd.AddCommand(documentRetryCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}
	ownerID, err := owner()
	if err != nil {
		return err
	}

	docs, err := documentService.List(cmd.Context(), ownerID)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	for i := range docs {
		doc := &docs[i]
		cmd.Printf("  %s  %s  %s\n", doc.ID, statusBadge(doc.Status), doc.Title)
		if doc.Status == domain.StatusProcessing {
			cmd.Printf("    %s\n", progressBar(doc.Progress, 20))
		}
	}

	cmd.Printf("\nTotal: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Title:    %s\n", doc.Title)
	cmd.Printf("  Status:   %s\n", statusBadge(doc.Status))
	cmd.Printf("  Progress: %s\n", progressBar(doc.Progress, 20))
	cmd.Printf("  Source:   %s\n", doc.Source)
	if doc.FileName != "" {
		cmd.Printf("  File:     %s\n", doc.FileName)
	}
	cmd.Printf("  Location: %s\n", doc.SourceURL)
	cmd.Printf("  Created:  %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:  %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))
	if doc.Error != "" {
		cmd.Printf("  Error:    %s\n", errorStyle.Render(doc.Error))
	}

	if md := doc.Metadata; md != nil {
		cmd.Println("\n  Metadata:")
		cmd.Printf("    Words:        %d\n", md.WordCount)
		cmd.Printf("    Reading time: %d min\n", md.EstimatedReadingTime)
		if md.Author != "" {
			cmd.Printf("    Author:       %s\n", md.Author)
		}
		if md.PublishedDate != "" {
			cmd.Printf("    Published:    %s\n", md.PublishedDate)
		}
		if len(md.Tags) > 0 {
			cmd.Printf("    Tags:         %s\n", strings.Join(md.Tags, ", "))
		}
		cmd.Printf("    Images:       %d\n", len(md.Images))
	}

	return nil
}

func runDocumentContent(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	content, err := documentService.Content(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get content: %w", err)
	}
	if content == "" {
		cmd.Println(mutedStyle.Render("(no content yet)"))
		return nil
	}

	if renderContent {
		content = renderMarkdown(content, 100)
	}
	cmd.Println(content)
	return nil
}

func runDocumentImages(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	images, err := documentService.Images(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get images: %w", err)
	}
	if len(images) == 0 {
		cmd.Println("No images.")
		return nil
	}

	for _, img := range images {
		cmd.Printf("  [Image #%d]  %s  %s\n", img.Index, img.ID, img.StorageRef)
		if imagesURLs {
			cmd.Printf("    %s\n", img.URL)
		}
	}
	return nil
}

func runDocumentRetry(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	ownerID, err := owner()
	if err != nil {
		return err
	}

	if err := ingestService.Retry(cmd.Context(), ownerID, args[0]); err != nil {
		return fmt.Errorf("failed to retry document: %w", err)
	}
	cmd.Printf("Queued %s\n", args[0])

	if !retryWait {
		return nil
	}
	return waitForDocuments(cmd, []*domain.Document{{ID: args[0]}})
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}
	ownerID, err := owner()
	if err != nil {
		return err
	}

	if err := documentService.Delete(cmd.Context(), ownerID, args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	cmd.Printf("Deleted %s\n", args[0])
	return nil
}
