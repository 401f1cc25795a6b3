package config

import (
	"errors"
	"os"
	"strings"
)

// Config represents the application configuration
// This struct contains all configuration parameters for the application
type Config struct {
	// AWS-specific configuration
	AWSRegion         string
	DynamoDBTableName string

	// Event stream configuration
	KafkaBrokers []string
	KafkaTopic   string

	// Environment and region info
	Environment string
	Region      string
}

// LoadFromEnv loads the configuration from environment variables
func LoadFromEnv() (*Config, error) {
	// Create a new config object and load values from environment
	cfg := &Config{}

	// Required environment variables
	cfg.DynamoDBTableName = os.Getenv("DYNAMODB_TABLE_NAME")
	if cfg.DynamoDBTableName == "" {
		return nil, errors.New("DYNAMODB_TABLE_NAME environment variable is required")
	}

	// Environment and region info
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "dev" // Default to dev environment
	}

	cfg.Region = os.Getenv("REGION")
	if cfg.Region == "" {
		cfg.Region = "jp"
	}

	// AWS Region
	cfg.AWSRegion = os.Getenv("AWS_REGION")
	if cfg.AWSRegion == "" {
		// Default AWS regions based on our region code
		switch cfg.Region {
		case "us":
			cfg.AWSRegion = "us-west-2"
		case "eu":
			cfg.AWSRegion = "eu-west-1"
		case "jp":
			cfg.AWSRegion = "ap-northeast-1"
		default:
			cfg.AWSRegion = "ap-northeast-1" // Default fallback
		}
	}

	// Event stream configuration
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		brokers = "localhost:9092"
	}
	cfg.KafkaBrokers = strings.Split(brokers, ",")

	cfg.KafkaTopic = os.Getenv("KAFKA_TOPIC")
	if cfg.KafkaTopic == "" {
		cfg.KafkaTopic = "ledger-changes"
	}

	return cfg, nil
}

func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}
