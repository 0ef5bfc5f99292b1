package logging

import "go.uber.org/zap"

// New builds the process logger. Production JSON output unless APP_ENV
// selects development.
func New(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
