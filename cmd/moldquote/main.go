// MoldQuote - Injection Mold Tooling Feasibility & Sizing
//
// A cross-platform desktop application for sizing injection molds in quote
// requests: clamping force, shot volume, cycle time, demand capacity and
// machine fit, with Excel, PDF and DXF exports.
//
// Build:
//   go build -o moldquote ./cmd/moldquote
//
// Cross-compile:
//   GOOS=windows GOARCH=amd64 go build -o moldquote.exe ./cmd/moldquote
//   GOOS=darwin  GOARCH=amd64 go build -o moldquote-darwin ./cmd/moldquote
//
// Using fyne-cross (recommended for proper packaging):
//   go install github.com/fyne-io/fyne-cross@latest
//   fyne-cross windows -arch=amd64
//   fyne-cross darwin  -arch=amd64,arm64

package main

import (
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"go.uber.org/zap"

	"github.com/piwi3910/MoldQuote/internal/logging"
	"github.com/piwi3910/MoldQuote/internal/model"
	"github.com/piwi3910/MoldQuote/internal/project"
	"github.com/piwi3910/MoldQuote/internal/ui"
)

func newLogger() *logging.Logger {
	level := model.DefaultAppConfig().LogLevel
	if cfg, err := project.LoadAppConfig(project.DefaultConfigPath()); err == nil && cfg.LogLevel != "" {
		level = cfg.LogLevel
	}

	dir := project.DefaultConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return logging.NewDefaultLogger("moldquote")
	}
	logger, err := logging.NewLogger(logging.Config{
		Level:      level,
		Format:     "json",
		OutputPath: filepath.Join(dir, "moldquote.log"),
		Fields:     map[string]string{"service": "moldquote"},
	})
	if err != nil {
		return logging.NewDefaultLogger("moldquote")
	}
	return logger
}

func main() {
	logger := newLogger()
	defer logger.Sync()
	logger.Info("starting", zap.String("config_dir", project.DefaultConfigDir()))

	application := app.NewWithID("com.piwi3910.moldquote")
	window := application.NewWindow("MoldQuote")

	appUI := ui.NewApp(application, window, logger)
	appUI.SetupMenus()
	window.SetContent(appUI.Build())
	window.Resize(fyne.NewSize(1400, 850))
	window.CenterOnScreen()
	window.ShowAndRun()
}
