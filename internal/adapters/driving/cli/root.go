// Package cli implements the readwell command-line interface.
package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/readwell/internal/core/ports/driving"
	"github.com/custodia-labs/readwell/internal/logger"
)

// OwnerEnv overrides the default document owner.
const OwnerEnv = "READWELL_OWNER"

// defaultOwner owns documents when neither --owner nor READWELL_OWNER is set.
const defaultOwner = "local"

// skipServices marks commands that run without building services.
const skipServices = "readwell/skip-services"

// Options are resolved from global flags before services are built.
type Options struct {
	// Ephemeral keeps records, blobs and caches in memory for this run only.
	Ephemeral bool

	Verbose bool
}

// Services are the driving ports commands run against.
type Services struct {
	Ingest    driving.IngestService
	Documents driving.DocumentService
	Explainer driving.Explainer
	Settings  driving.SettingsService
}

// Builder constructs services for a command. The returned cleanup runs once
// the command has finished, successfully or not.
type Builder func(ctx context.Context, opts Options) (*Services, func(), error)

var (
	version = "dev"

	builder Builder
	cleanup func()

	verbose   bool
	ephemeral bool
	ownerID   string

	ingestService   driving.IngestService
	documentService driving.DocumentService
	explainer       driving.Explainer
	settingsService driving.SettingsService
)

var rootCmd = &cobra.Command{
	Use:   "readwell",
	Short: "Turn PDFs into clean, readable markdown",
	Long: `Readwell runs PDFs through OCR, cleans the text, and has an LLM fix
the markdown formatting chunk by chunk while keeping every word intact.

Documents are stored per owner with their images, word count and
reading time, and can be explained passage by passage.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep everything in memory for this run")
	rootCmd.PersistentFlags().StringVar(&ownerID, "owner", envOr(OwnerEnv, defaultOwner), "Owner of the documents")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetBuilder sets the function that constructs services before each command.
func SetBuilder(b Builder) {
	builder = b
}

// SetServices installs services directly, bypassing the builder.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	ingestService = s.Ingest
	documentService = s.Documents
	explainer = s.Explainer
	settingsService = s.Settings
}

// Execute runs the root command and releases services afterwards.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

func initServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if builder == nil || cmd.Annotations[skipServices] == "true" {
		return nil
	}

	services, done, err := builder(cmd.Context(), Options{Ephemeral: ephemeral, Verbose: verbose})
	if err != nil {
		return err
	}
	SetServices(services)
	cleanup = done
	return nil
}

func closeServices() {
	if cleanup != nil {
		cleanup()
		cleanup = nil
	}
}

func owner() (string, error) {
	if ownerID == "" {
		return "", errors.New("owner required (use --owner or " + OwnerEnv + ")")
	}
	return ownerID, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
