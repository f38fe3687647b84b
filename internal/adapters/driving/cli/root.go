// Package cli implements the ragdesk command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=v1.2.3".
var version = "dev"

var (
	verbose    bool
	configPath string
)

// Services holds the driving ports the commands use.
type Services struct {
	Jobs     driving.JobController
	Settings driving.SettingsService
	Models   driving.ModelService
	Index    driving.IndexService

	// Supports reports whether a file can be extracted.
	Supports func(domain.Document) bool

	// AppSettings are the settings the services were built from.
	AppSettings domain.AppSettings

	// Err is set when the pipeline could not be built. Settings commands
	// still work so the configuration can be fixed.
	Err error

	// Close releases everything the services hold.
	Close func() error
}

// Bootstrap builds services for a config file path. An empty path selects
// the default location.
type Bootstrap func(configPath string) (*Services, error)

var (
	bootstrap Bootstrap

	jobController   driving.JobController
	settingsService driving.SettingsService
	modelService    driving.ModelService
	indexService    driving.IndexService
	supportsFile    func(domain.Document) bool
	appSettings     = domain.DefaultAppSettings()
	servicesErr     error
	closeServices   func() error
)

var rootCmd = &cobra.Command{
	Use:   "ragdesk",
	Short: "Ask questions about your local documents",
	Long: `ragdesk ingests local documents into a vector index and answers
questions about them with a local model, citing the source document and page.

Start with:
  ragdesk ingest ./papers
  ragdesk ask "What does the survey conclude?"`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.ragdesk/config.toml)")
}

// SetBootstrap sets the function building services before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs services directly.
func SetServices(s *Services) {
	jobController = s.Jobs
	settingsService = s.Settings
	modelService = s.Models
	indexService = s.Index
	supportsFile = s.Supports
	appSettings = s.AppSettings
	servicesErr = s.Err
	closeServices = s.Close
}

func setup(*cobra.Command, []string) error {
	logger.SetVerbose(verbose)
	if bootstrap == nil || settingsService != nil {
		return nil
	}

	s, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	SetServices(s)
	if s.Err != nil {
		logger.Debug("pipeline unavailable: %v", s.Err)
	}
	return nil
}

func teardown(*cobra.Command, []string) error {
	if closeServices == nil {
		return logger.Sync()
	}
	err := closeServices()
	closeServices = nil
	return errors.Join(err, logger.Sync())
}

// requireJobs returns the job controller or explains why it is missing.
func requireJobs() (driving.JobController, error) {
	if jobController != nil {
		return jobController, nil
	}
	if servicesErr != nil {
		return nil, fmt.Errorf("pipeline not configured: %w. Run 'ragdesk settings' to fix", servicesErr)
	}
	return nil, errors.New("job service not configured")
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context, which cancels running jobs.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
