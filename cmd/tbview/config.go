package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tbeam/tbview/internal/model"
	"github.com/tbeam/tbview/internal/snapshot"
)

const (
	defaultAPIAddr      = "127.0.0.1:3000"
	defaultIndexKeep    = 20
	defaultIndexMaxAge  = 30 * 24 * time.Hour
	defaultQueryTimeout = 30 * time.Second
)

// appConfig holds the viewer configuration.
type appConfig struct {
	ADCCut             float64       `mapstructure:"adc-cut"`
	PlayerDelay        time.Duration `mapstructure:"player-delay"`
	MinDelay           time.Duration `mapstructure:"min-delay"`
	ZSPSigma           float64       `mapstructure:"zsp-sigma"`
	CalibFile          string        `mapstructure:"calib-file"`
	WCTimeWindow       float64       `mapstructure:"wc-time-window"`
	SnapshotDir        string        `mapstructure:"snapshot-dir"`
	SnapshotFormat     string        `mapstructure:"snapshot-format"`
	IndexPath          string        `mapstructure:"index-path"`
	IndexWorkers       int           `mapstructure:"index-workers"`
	IndexKeepRuns      int           `mapstructure:"index-keep-runs"`
	IndexMaxAge        time.Duration `mapstructure:"index-max-age"`
	ChannelThreshold   float64       `mapstructure:"channel-threshold"`
	QueryTimeout       time.Duration `mapstructure:"query-timeout"`
	MappingDSN         string        `mapstructure:"mapping-dsn"`
	MappingRun         int           `mapstructure:"mapping-run"`
	APIEnabled         bool          `mapstructure:"api-enabled"`
	APIAddr            string        `mapstructure:"api-addr"`
	WatchFile          bool          `mapstructure:"watch-file"`
	ReverseScrollWheel bool          `mapstructure:"reverse-scroll-wheel"`
	DefaultFile        string        `mapstructure:"default-file"`
	Skin               string        `mapstructure:"skin"`
	LogLevel           string        `mapstructure:"log-level"`

	ConfigDir string          `mapstructure:"-"`
	Format    snapshot.Format `mapstructure:"-"`
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}
	configDir := filepath.Join(home, ".config", "tbview")

	v := viper.New()
	v.SetEnvPrefix("TBVIEW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("adc-cut", model.DefaultADCCut)
	v.SetDefault("player-delay", model.DefaultPlayerDelay)
	v.SetDefault("min-delay", model.MinPlayerDelay)
	v.SetDefault("zsp-sigma", model.DefaultZSPSigma)
	v.SetDefault("calib-file", "")
	v.SetDefault("wc-time-window", model.DefaultWCTimeWindow)
	v.SetDefault("snapshot-dir", ".")
	v.SetDefault("snapshot-format", string(snapshot.FormatPDF))
	v.SetDefault("index-path", filepath.Join(home, ".local", "share", "tbview", "index.duckdb"))
	v.SetDefault("index-workers", 0)
	v.SetDefault("index-keep-runs", defaultIndexKeep)
	v.SetDefault("index-max-age", defaultIndexMaxAge)
	v.SetDefault("channel-threshold", 0)
	v.SetDefault("query-timeout", defaultQueryTimeout)
	v.SetDefault("mapping-dsn", "")
	v.SetDefault("mapping-run", 0)
	v.SetDefault("api-enabled", false)
	v.SetDefault("api-addr", defaultAPIAddr)
	v.SetDefault("watch-file", true)
	v.SetDefault("reverse-scroll-wheel", false)
	v.SetDefault("default-file", "")
	v.SetDefault("skin", model.DefaultSkin)
	v.SetDefault("log-level", "info")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(configDir, "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigDir = configDir

	if cfg.ADCCut < 0 {
		return cfg, fmt.Errorf("invalid adc-cut: %v", cfg.ADCCut)
	}
	if cfg.MinDelay <= 0 {
		return cfg, fmt.Errorf("invalid min-delay: %v", cfg.MinDelay)
	}
	cfg.Format, err = snapshot.ParseFormat(cfg.SnapshotFormat)
	if err != nil {
		return cfg, err
	}

	// Expand ~ in paths
	for _, p := range []*string{&cfg.IndexPath, &cfg.SnapshotDir, &cfg.CalibFile, &cfg.DefaultFile} {
		if strings.HasPrefix(*p, "~/") {
			*p = filepath.Join(home, (*p)[2:])
		}
	}
	return cfg, nil
}
