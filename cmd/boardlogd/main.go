package main

import (
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/voyanet/boardlog"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg := boardlog.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = boardlog.LoadConfig(*configPath)
		if err != nil {
			slog.Error("load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
	}

	logger := newLogger(cfg)

	store, err := cfg.OpenStore()
	if err != nil {
		logger.Error("open store", "backend", cfg.Backend, "path", cfg.DataPath, "error", err)
		os.Exit(1)
	}

	srv := boardlog.NewServer(store, logger)
	logger.Info("boardlog listening", "addr", cfg.ListenAddr, "backend", cfg.Backend, "data", cfg.DataPath)
	if err := http.ListenAndServe(cfg.ListenAddr, srv.Routes()); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// newLogger builds the daemon logger: stderr by default, a size/age-rotated
// file when log_file is configured.
func newLogger(cfg boardlog.Config) *slog.Logger {
	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		out = &lumberjack.Logger{
			Filename: cfg.LogFile,
			MaxSize:  cfg.LogMaxSizeMB,  // megabytes
			MaxAge:   cfg.LogMaxAgeDays, // days
		}
	}
	return slog.New(slog.NewTextHandler(out, nil))
}
