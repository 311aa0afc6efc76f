package src

import (
	"batch_txt_bot/src/model"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Log       model.LogConfig       `envconfig:"LOG"`
	Bot       model.BotConfig       `envconfig:"BOT"`
	Session   model.SessionConfig   `envconfig:"SESSION"`
	HTTP      model.HTTPConfig      `envconfig:"HTTP"`
	Penpencil model.PenpencilConfig `envconfig:"PENPENCIL"`
	Exampur   model.ExampurConfig   `envconfig:"EXAMPUR"`
	Server    model.ServerConfig    `envconfig:"SERVER"`
	Artifact  model.ArtifactConfig  `envconfig:"ARTIFACT"`
}

func LoadConfig() (*Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	if err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}

	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
