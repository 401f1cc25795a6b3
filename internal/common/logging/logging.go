package logging

import (
	"go.uber.org/zap"
)

// New builds the application logger. Production gets structured JSON output;
// every other environment gets the human-readable development config.
func New(environment string) (*zap.Logger, error) {
	if environment == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// Must is like New but panics if the logger cannot be constructed.
// Intended for use in main functions.
func Must(environment string) *zap.Logger {
	logger, err := New(environment)
	if err != nil {
		panic(err)
	}
	return logger
}
