// Package app wires storage, clients and services together and owns the
// background tasks.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tptkds/assetManagement/internal/clients/eodhd"
	"github.com/tptkds/assetManagement/internal/common"
	"github.com/tptkds/assetManagement/internal/interfaces"
	"github.com/tptkds/assetManagement/internal/services/chart"
	"github.com/tptkds/assetManagement/internal/services/pricefetch"
	"github.com/tptkds/assetManagement/internal/services/publisher"
	"github.com/tptkds/assetManagement/internal/services/refresh"
	"github.com/tptkds/assetManagement/internal/storage"
	"github.com/tptkds/assetManagement/internal/storage/universe"
)

// App holds all initialized services and clients.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Storage     interfaces.StorageManager
	Quotes      interfaces.QuoteClient // nil without an EODHD key
	Chart       interfaces.ChartService
	Refresh     *refresh.Loop      // nil when Quotes is nil
	Publisher   *publisher.Service // nil when Quotes is nil
	StartupTime time.Time

	refreshCancel   context.CancelFunc
	publisherCancel context.CancelFunc
	wg              sync.WaitGroup
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath picks the config file: the explicit path, ASSET_CONFIG,
// asset.toml next to the binary, then config/asset.toml.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("ASSET_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "asset.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/asset.toml"
		}
	}
	return configPath
}

// NewApp loads the configuration and initializes everything.
// configPath may be empty, in which case ResolveConfigPath decides.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative log file path to binary directory
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(getBinaryDir(), config.Logging.FilePath)
	}

	return NewAppFromConfig(ctx, config, common.NewLoggerFromConfig(config.Logging))
}

// NewAppFromConfig initializes the app from an already loaded config.
func NewAppFromConfig(ctx context.Context, config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()

	storageManager, err := storage.NewManager(ctx, logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	a := &App{
		Config:      config,
		Logger:      logger,
		Storage:     storageManager,
		Chart:       chart.NewService(storageManager, logger, config),
		StartupTime: startupStart,
	}

	if config.Clients.EODHD.APIKey == "" {
		logger.Warn().Msg("EODHD API key not configured - price refresh and publishers disabled")
	} else {
		client := eodhd.NewClientFromConfig(&config.Clients.EODHD, logger)
		a.Quotes = client
		a.Refresh = refresh.NewLoop(
			a.instrumentSource(),
			pricefetch.NewFetcher(client, logger, pricefetch.DefaultMaxConcurrent),
			storageManager.MarketCache(),
			logger,
			&config.Refresh,
		)
		a.Publisher = publisher.NewService(client, storageManager.AssetStore(), storageManager.MarketCache(), logger, config)
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")
	return a, nil
}

// instrumentSource returns the YAML universe when configured, else the store.
func (a *App) instrumentSource() interfaces.InstrumentSource {
	if path := a.Config.Refresh.UniverseFile; path != "" {
		a.Logger.Info().Str("path", path).Msg("Refresh universe read from file")
		return universe.NewFileSource(path)
	}
	return a.Storage.AssetStore()
}

// Close stops background tasks and releases storage.
// Shutdown order: cancel refresh, cancel publisher, wait, close storage.
func (a *App) Close() {
	if a.refreshCancel != nil {
		a.refreshCancel()
		a.refreshCancel = nil
	}
	if a.publisherCancel != nil {
		a.publisherCancel()
		a.publisherCancel = nil
	}
	a.wg.Wait()
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
		a.Storage = nil
	}
}
