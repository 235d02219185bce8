// Package logging provides the shared zap logger and log sanitization helpers.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New creates a zap logger appropriate for the environment.
// Production environments get JSON output, everything else gets the
// human-readable development encoder.
func New(env string) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, nil
}
