// Package logging provides the structured zap logger shared by the server
// and the desktop app.
package logging

import (
	"go.uber.org/zap"
)

// Logger wraps zap.Logger with the fields attached so far.
type Logger struct {
	*zap.Logger
	fields map[string]interface{}
}

// Config holds logging configuration.
type Config struct {
	Level       string            `json:"level"`
	Format      string            `json:"format"` // "json" or "console"
	OutputPath  string            `json:"output_path"`
	Fields      map[string]string `json:"fields"`
	Development bool              `json:"development"`
}

// NewLogger creates a logger from config. Unknown levels fall back to info.
func NewLogger(config Config) (*Logger, error) {
	var zapConfig zap.Config
	if config.Development {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(config.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zapConfig.Level = level

	if config.Format == "console" {
		zapConfig.Encoding = "console"
	} else {
		zapConfig.Encoding = "json"
	}

	if config.OutputPath != "" {
		zapConfig.OutputPaths = []string{config.OutputPath}
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	l := &Logger{Logger: logger, fields: map[string]interface{}{}}
	if len(config.Fields) > 0 {
		fields := make(map[string]interface{}, len(config.Fields))
		for k, v := range config.Fields {
			fields[k] = v
		}
		l = l.WithFields(fields)
	}
	return l, nil
}

// NewDefaultLogger creates an info-level JSON logger tagged with service.
func NewDefaultLogger(service string) *Logger {
	logger, err := NewLogger(Config{
		Level:  "info",
		Format: "json",
		Fields: map[string]string{"service": service},
	})
	if err != nil {
		zapLogger, _ := zap.NewProduction()
		return &Logger{
			Logger: zapLogger.With(zap.String("service", service)),
			fields: map[string]interface{}{"service": service},
		}
	}
	return logger
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop(), fields: map[string]interface{}{}}
}

// WithField adds a field to the logger context.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields adds multiple fields to the logger context.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	newFields := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		newFields[k] = v
	}
	zapFields := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		newFields[k] = v
		zapFields = append(zapFields, zap.Any(k, v))
	}

	return &Logger{
		Logger: l.Logger.With(zapFields...),
		fields: newFields,
	}
}

// Fields returns a copy of the fields attached to the logger.
func (l *Logger) Fields() map[string]interface{} {
	out := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		out[k] = v
	}
	return out
}

// LogEvaluation records the outcome of a tool evaluation.
func (l *Logger) LogEvaluation(tool, machine string, fits bool, warnings int) {
	l.WithFields(map[string]interface{}{
		"tool":     tool,
		"machine":  machine,
		"fits":     fits,
		"warnings": warnings,
	}).Info("Tool evaluated")
}

// LogImport records the outcome of a part list import.
func (l *Logger) LogImport(source string, parts, errors, warnings int) {
	logger := l.WithFields(map[string]interface{}{
		"source":   source,
		"parts":    parts,
		"errors":   errors,
		"warnings": warnings,
	})
	if errors > 0 {
		logger.Warn("Part import finished with errors")
		return
	}
	logger.Info("Part import finished")
}
