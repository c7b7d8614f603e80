package logger_test

import (
	"errors"

	"github.com/wonny/vivienda/pkg/config"
	"github.com/wonny/vivienda/pkg/logger"
)

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	}

	log := logger.New(cfg)

	// Tag by component and attach fields
	trainLog := log.Component("training.trainer").WithFields(map[string]interface{}{
		"rows":  1200,
		"trees": 100,
	})
	trainLog.Info("Model trained")

	// Combine error with fields
	log.WithError(errors.New("artifact schema mismatch")).
		WithField("artifact", "modelo_precio.gob").
		Error("Refusing to serve predictions")
}
