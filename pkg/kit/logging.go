package kit

import "go.uber.org/zap"

// NewLogger builds the service logger. dev switches to the console encoder
// for local runs.
func NewLogger(service string, dev bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if dev {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.InitialFields = map[string]any{"service": service}
	l, _ := cfg.Build()
	return l
}
