package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aben18/enroll/internal/app"
	"github.com/aben18/enroll/internal/cachemanager"
	"github.com/aben18/enroll/internal/config"
	"github.com/aben18/enroll/internal/directory"
	"github.com/aben18/enroll/internal/directory/sqlite"
	"github.com/aben18/enroll/internal/log"
	"github.com/aben18/enroll/internal/tracing"
	"github.com/aben18/enroll/internal/ui/styles"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:     "enroll",
	Short:   "A terminal sign-up form backed by a member directory",
	Long:    `A terminal user interface for registering an account against a shared member directory, with organization lookup by email, debounced name search, and inline organization creation.`,
	Version: version,
	RunE:    runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/enroll/config.yaml)")
	rootCmd.PersistentFlags().String("db", "",
		"path to the directory database")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"write debug logs to enroll.log")
	rootCmd.Flags().Bool("no-auto-refresh", false,
		"disable form refresh when the directory database changes")

	_ = viper.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("db"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("auto_refresh", defaults.AutoRefresh)
	viper.SetDefault("search.debounce_ms", defaults.Search.DebounceMs)
	viper.SetDefault("search.min_query_length", defaults.Search.MinQueryLength)
	viper.SetDefault("search.limit", defaults.Search.Limit)
	viper.SetDefault("labels.title", defaults.Labels.Title)
	viper.SetDefault("labels.first_name", defaults.Labels.FirstName)
	viper.SetDefault("labels.last_name", defaults.Labels.LastName)
	viper.SetDefault("labels.email", defaults.Labels.Email)
	viper.SetDefault("labels.job_title", defaults.Labels.JobTitle)
	viper.SetDefault("labels.organization", defaults.Labels.Organization)
	viper.SetDefault("labels.create_button", defaults.Labels.CreateButton)
	viper.SetDefault("labels.submit_button", defaults.Labels.SubmitButton)
	viper.SetDefault("labels.cancel_button", defaults.Labels.CancelButton)
	viper.SetDefault("labels.modal_title", defaults.Labels.ModalTitle)
	viper.SetDefault("labels.modal_name", defaults.Labels.ModalName)
	viper.SetDefault("urls.confirmation", defaults.URLs.Confirmation)
	viper.SetDefault("urls.login", defaults.URLs.Login)
	viper.SetDefault("theme.highlight", defaults.Theme.Highlight)
	viper.SetDefault("theme.subtle", defaults.Theme.Subtle)
	viper.SetDefault("theme.error", defaults.Theme.Error)
	viper.SetDefault("theme.success", defaults.Theme.Success)
	viper.SetDefault("cache.enabled", defaults.Cache.Enabled)
	viper.SetDefault("cache.ttl_ms", defaults.Cache.TTLMs)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .enroll/config.yaml (current directory)
		// 2. ~/.config/enroll/config.yaml (user config)
		if _, err := os.Stat(".enroll/config.yaml"); err == nil {
			viper.SetConfigFile(".enroll/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "enroll"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create default at .enroll/config.yaml
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			defaultPath := ".enroll/config.yaml"
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// configFilePath returns the config file in use, defaulting to the local
// .enroll directory when none was loaded.
func configFilePath() string {
	if path := viper.ConfigFileUsed(); path != "" {
		return path
	}
	return ".enroll/config.yaml"
}

// resolveDBPath returns the directory database location, defaulting to
// directory.db next to the config file.
func resolveDBPath() string {
	if cfg.DBPath != "" {
		return cfg.DBPath
	}
	return filepath.Join(filepath.Dir(configFilePath()), "directory.db")
}

// initLogging starts file logging when --debug or ENROLL_DEBUG is set.
// The returned cleanup is always safe to call.
func initLogging() func() {
	if !debugFlag && os.Getenv("ENROLL_DEBUG") == "" {
		return func() {}
	}

	logPath := os.Getenv("ENROLL_LOG_FILE")
	if logPath == "" {
		logPath = "enroll.log"
	}

	cleanup, err := log.Init(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: debug logging unavailable: %v\n", err)
		return func() {}
	}
	log.Info(log.CatConfig, "Enroll starting", "version", version, "logPath", logPath)
	return cleanup
}

// exitNavigator captures the final redirect destination so it can be shown
// after the program restores the terminal.
type exitNavigator struct {
	url string
}

func (n *exitNavigator) Navigate(url string) { n.url = url }

func runApp(cmd *cobra.Command, args []string) error {
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cleanup := initLogging()
	defer cleanup()

	// Handle --no-auto-refresh flag (negated logic)
	if noAutoRefresh, _ := cmd.Flags().GetBool("no-auto-refresh"); noAutoRefresh {
		cfg.AutoRefresh = false
	}

	cfg.DBPath = resolveDBPath()
	styles.ApplyTheme(cfg.Theme.Highlight, cfg.Theme.Subtle, cfg.Theme.Error, cfg.Theme.Success)

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening directory database: %w\nRun 'enroll seed' to create a demo directory", err)
	}
	defer func() { _ = store.Close() }()

	provider, err := tracing.NewProvider(tracingConfig())
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() { _ = provider.Shutdown(context.Background()) }()

	// Decorator chain: store -> cache -> tracing. The cache handle stays
	// separate so the watcher can flush it on external changes.
	var (
		service directory.Service = store
		cache   *directory.CachedService
	)
	if cfg.Cache.Enabled {
		manager := cachemanager.NewInMemoryCacheManager[string, *directory.Organization](
			"directory", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
		cache = directory.NewCachedService(service, manager, cfg.Cache.TTL())
		service = cache
	}
	if provider.Enabled() {
		service = directory.NewTracedService(service, provider.Tracer())
	}

	zone.NewGlobal()
	defer zone.Close()

	nav := &exitNavigator{}
	model := app.New(cfg, service, cache, nav)
	p := tea.NewProgram(
		&model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err = p.Run()

	// Clean up watcher resources
	if closeErr := model.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}

	if nav.url != "" {
		fmt.Printf("Continue at: %s\n", nav.url)
	}
	return nil
}

// tracingConfig maps the user config onto the tracing subsystem, deriving
// the trace file location from the config directory when unset.
func tracingConfig() tracing.Config {
	tc := tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		Exporter:     cfg.Tracing.Exporter,
		FilePath:     cfg.Tracing.FilePath,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
		ServiceName:  cfg.Tracing.ServiceName,
	}
	if tc.FilePath == "" {
		tc.FilePath = filepath.Join(filepath.Dir(configFilePath()), "traces", "traces.jsonl")
	}
	return tc
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
