package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentx-labs/registrar/internal/branding"
	"github.com/agentx-labs/registrar/internal/config"
	"github.com/agentx-labs/registrar/internal/logging"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	configPath string
	logLevel   string
	logFormat  string
	catalogs   []string
	strictMode bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` builds a registry of managers, items and tags from catalog
manifests and reports what was registered.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (default "+config.FilePath()+")")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "", "Log format: console or json")
	pf.StringSliceVar(&catalogs, "catalog", nil, "Catalog directory or manifest file, repeatable (overrides catalog.paths)")
	pf.BoolVar(&strictMode, "strict", false, "Fail when a manifest is rejected or the build records an event")
}

// setup loads the config and builds the stderr logger. Flags win over the
// config file and environment.
func setup(cmd *cobra.Command) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = c

	level, format := cfg.LogLevel(), cfg.LogFormat()
	if logLevel != "" {
		level = logLevel
	}
	if logFormat != "" {
		format = logFormat
	}
	l, err := logging.NewZapLogger(level, format, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("configuring logger: %w", err)
	}
	logger = l
	return nil
}

func strict() bool {
	return strictMode || (cfg != nil && cfg.Strict())
}

func catalogPaths() []string {
	if len(catalogs) > 0 {
		return catalogs
	}
	if cfg == nil {
		return []string{config.DefaultCatalogDir()}
	}
	return cfg.CatalogPaths()
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
	}
	return err
}
