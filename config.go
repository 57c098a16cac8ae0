package main

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/GuardianUI/storycheck/mockwallet/pkg/bridge"
	"github.com/GuardianUI/storycheck/mockwallet/pkg/log"
)

const (
	configDirPathEnv     = "MOCKWALLET_CONFIG_DIR_PATH"
	defaultConfigDirPath = "."
)

// Config is the service configuration, read from the environment.
type Config struct {
	NodeURL string `env:"MOCKWALLET_NODE_URL" env-default:"http://127.0.0.1:8545" validate:"required,url"`
	// PrivateKey is optional; without it every page gets a fresh burn wallet.
	PrivateKey string `env:"MOCKWALLET_PRIVATE_KEY" validate:"omitempty,hexadecimal"`
	// ChainID answers eth_chainId without asking the node. Zero means ask.
	ChainID      uint64        `env:"MOCKWALLET_CHAIN_ID"`
	SubmitMode   bridge.Mode   `env:"MOCKWALLET_SUBMIT_MODE" env-default:"observe" validate:"oneof=observe live"`
	ConnectDelay time.Duration `env:"MOCKWALLET_CONNECT_DELAY" env-default:"100ms"`

	ListenAddr  string `env:"MOCKWALLET_LISTEN_ADDR" env-default:":8546" validate:"required"`
	MetricsAddr string `env:"MOCKWALLET_METRICS_ADDR" env-default:":4242"`
	ResultsDir  string `env:"MOCKWALLET_RESULTS_DIR" env-default:"results"`
	// PrerequisitesPath points at a story prerequisites YAML file.
	PrerequisitesPath string `env:"MOCKWALLET_PREREQUISITES"`

	Log      log.Config `env-prefix:"MOCKWALLET_"`
	Database DatabaseConfig
}

// ChainIDBig returns the configured chain id, or nil when unset.
func (c *Config) ChainIDBig() *big.Int {
	if c.ChainID == 0 {
		return nil
	}
	return new(big.Int).SetUint64(c.ChainID)
}

// LoadConfig reads <MOCKWALLET_CONFIG_DIR_PATH>/.env when present, then the
// environment, and validates the result.
func LoadConfig(logger log.Logger) (*Config, error) {
	logger = logger.Named("config")

	configDirPath := os.Getenv(configDirPathEnv)
	if configDirPath == "" {
		configDirPath = defaultConfigDirPath
	}
	dotEnvPath := filepath.Join(configDirPath, ".env")
	if err := godotenv.Load(dotEnvPath); err != nil {
		logger.Debug(".env file not loaded", "path", dotEnvPath, "err", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if cfg.Database.URL != "" {
		dbConf, err := ParseConnectionString(cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		dbConf.URL = cfg.Database.URL
		cfg.Database = dbConf
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Info("configuration loaded",
		"nodeUrl", cfg.NodeURL,
		"submitMode", cfg.SubmitMode,
		"chainId", cfg.ChainID,
		"burnWallet", cfg.PrivateKey == "",
		"dbDriver", cfg.Database.Driver,
	)
	return &cfg, nil
}
