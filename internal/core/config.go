// Package core contains the business logic of the knowledge pipeline:
// the answer router, the confidence and research classifiers, the
// research worker, teachability corrections, and draft review.
package core

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"machinespirit/pkg/models"
)

// ConfigurationManager loads the merged runtime configuration from the
// .spiritconfig file in the data base path.
type ConfigurationManager interface {
	Load() (*models.Config, error)
}

type viperConfigManager struct {
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager reading
// .spiritconfig relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig(basePath string) *models.Config {
	return &models.Config{
		DataDir:             basePath,
		PersonaName:         "Machine Spirit",
		BatchLimit:          5,
		CollaboratorURL:     "",
		ResearchTimeout:     8 * time.Second,
		CalibrationMinWords: 10,
		CalibrationMaxWords: 20,
		MaxTurnsPerChannel:  50,
		LockTimeout:         3 * time.Second,
	}
}

// Load reads .spiritconfig from the base path. A missing file yields
// defaults; a malformed one is an error the CLI reports.
func (cm *viperConfigManager) Load() (*models.Config, error) {
	cfg := DefaultConfig(cm.basePath)

	v := viper.New()
	v.SetConfigName(".spiritconfig")
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("persona.name", cfg.PersonaName)
	v.SetDefault("persona.user", cfg.UserName)
	v.SetDefault("research.batch_limit", cfg.BatchLimit)
	v.SetDefault("research.collaborator_url", cfg.CollaboratorURL)
	v.SetDefault("research.timeout_seconds", int(cfg.ResearchTimeout/time.Second))
	v.SetDefault("calibration.min_words", cfg.CalibrationMinWords)
	v.SetDefault("calibration.max_words", cfg.CalibrationMaxWords)
	v.SetDefault("turns.max_per_channel", cfg.MaxTurnsPerChannel)
	v.SetDefault("lock.timeout_seconds", int(cfg.LockTimeout/time.Second))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .spiritconfig: %w", err)
	}

	cfg.DataDir = v.GetString("data_dir")
	cfg.PersonaName = v.GetString("persona.name")
	cfg.UserName = v.GetString("persona.user")
	cfg.BatchLimit = v.GetInt("research.batch_limit")
	cfg.CollaboratorURL = v.GetString("research.collaborator_url")
	cfg.ResearchTimeout = time.Duration(v.GetInt("research.timeout_seconds")) * time.Second
	cfg.CalibrationMinWords = v.GetInt("calibration.min_words")
	cfg.CalibrationMaxWords = v.GetInt("calibration.max_words")
	cfg.MaxTurnsPerChannel = v.GetInt("turns.max_per_channel")
	cfg.LockTimeout = time.Duration(v.GetInt("lock.timeout_seconds")) * time.Second

	if cfg.BatchLimit < 1 {
		cfg.BatchLimit = 1
	}
	if cfg.CalibrationMinWords < 1 || cfg.CalibrationMaxWords < cfg.CalibrationMinWords {
		cfg.CalibrationMinWords = 10
		cfg.CalibrationMaxWords = 20
	}
	return cfg, nil
}
