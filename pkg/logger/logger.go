// Package logger builds the process-wide zap logger.
package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// New returns a production logger, or a human-readable development
// logger when dev is true.
func New(dev bool) (*zap.Logger, error) {
	var (
		log *zap.Logger
		err error
	)
	if dev {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return log, nil
}
