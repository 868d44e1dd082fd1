package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/readwell/internal/connectors/filesystem"
	"github.com/custodia-labs/readwell/internal/core/domain"
	"github.com/custodia-labs/readwell/internal/logger"
)

var (
	watchExisting bool
	watchSettle   time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Process PDFs dropped into a folder",
	Long: `Watch a folder and submit every PDF that appears in it. Files are
picked up once writes to them have settled. Runs until interrupted; queued
documents that have not started are marked failed and can be retried.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "Also process PDFs already in the folder")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", filesystem.DefaultSettle, "Quiet period before a new file is picked up")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	ownerID, err := owner()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher := filesystem.New(args[0], filesystem.WithSettle(watchSettle))
	defer watcher.Close()

	if watchExisting {
		paths, err := watcher.Scan()
		if err != nil {
			return err
		}
		for _, path := range paths {
			submitWatched(ctx, cmd, ownerID, path)
		}
	}

	paths, err := watcher.Watch(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Watching %s (Ctrl+C to stop)\n", args[0])

	for path := range paths {
		submitWatched(ctx, cmd, ownerID, path)
	}
	cmd.Println("Stopped watching.")
	return nil
}

// submitWatched queues one dropped file. Failures are reported and skipped so
// one bad file does not stop the watch.
func submitWatched(ctx context.Context, cmd *cobra.Command, ownerID, path string) {
	doc, err := ingestService.Submit(ctx, domain.SubmitRequest{
		OwnerID:   ownerID,
		SourceURL: filesystem.FileURL(path),
		FileName:  filepath.Base(path),
		Source:    domain.SourceUpload,
	})
	if err != nil {
		logger.Warn("watch: submit %s: %v", path, err)
		cmd.PrintErrln(errorStyle.Render(fmt.Sprintf("Skipped %s: %v", filepath.Base(path), err)))
		return
	}
	cmd.Printf("Queued %s  %s\n", doc.ID, doc.Title)
}
