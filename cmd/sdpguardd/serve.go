/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sasha-s/go-deadlock"
	"github.com/spf13/cobra"

	cfg "stash.kopano.io/kwm/sdpguard/config"
	"stash.kopano.io/kwm/sdpguard/guard/server"
	"stash.kopano.io/kwm/sdpguard/internal/sdppatch"
	"stash.kopano.io/kwm/sdpguard/version"
)

var (
	detectDeadlocks = false
)

func commandServe() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve [...args]",
		Short: "Start server and listen for requests",
		Run: func(cmd *cobra.Command, args []string) {
			if err := serve(cmd, args); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	}
	serveCmd.Flags().String("listen", "", fmt.Sprintf("TCP listen address (default \"%s\")", cfg.DefaultListenAddr))
	serveCmd.Flags().String("config", "", "Path to YAML configuration file")
	serveCmd.Flags().Bool("log-timestamp", true, "Prefix each log line with timestamp")
	serveCmd.Flags().String("log-level", cfg.DefaultLogLevel, "Log level (one of panic, fatal, error, warn, info or debug)")
	serveCmd.Flags().String("log-file", "", "Also write logs to this file, rotated by size")
	serveCmd.Flags().Bool("log-requests", false, "Log each HTTP request at debug level")
	serveCmd.Flags().Bool("with-pprof", false, "With pprof enabled")
	serveCmd.Flags().String("pprof-listen", "127.0.0.1:6060", "TCP listen address for pprof")
	serveCmd.Flags().Bool("with-metrics", false, "Enable metrics")
	serveCmd.Flags().String("metrics-listen", cfg.DefaultMetricsListenAddr, "TCP listen address for metrics")
	serveCmd.Flags().String("header-extensions", cfg.DefaultHeaderExtensions, "RTP header extension policy (one of disable, one-byte or one-and-two-byte)")
	serveCmd.Flags().Duration("call-idle-timeout", cfg.DefaultCallIdleTimeout, "Remove calls without updates after this duration, 0 to keep them forever")
	serveCmd.Flags().BoolVar(&detectDeadlocks, "with-deadlock-detector", detectDeadlocks, "Enable deadlock detection")

	return serveCmd
}

func serve(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	configPath, _ := cmd.Flags().GetString("config")
	file, err := cfg.LoadFile(configPath)
	if err != nil {
		return err
	}

	// Command line flags override the config file.
	flags := cmd.Flags()
	if flags.Changed("log-timestamp") {
		file.Log.Timestamp, _ = flags.GetBool("log-timestamp")
	}
	if flags.Changed("log-level") {
		file.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-file") {
		file.Log.File, _ = flags.GetString("log-file")
	}
	if flags.Changed("log-requests") {
		file.RequestLog, _ = flags.GetBool("log-requests")
	}
	if flags.Changed("with-metrics") {
		file.Metrics.Enabled, _ = flags.GetBool("with-metrics")
	}
	if flags.Changed("metrics-listen") {
		file.Metrics.Listen, _ = flags.GetString("metrics-listen")
	}
	if flags.Changed("header-extensions") {
		file.HeaderExtensions, _ = flags.GetString("header-extensions")
	}
	if flags.Changed("call-idle-timeout") {
		file.CallIdleTimeout, _ = flags.GetDuration("call-idle-timeout")
	}

	logger, err := newLoggerWithFile(!file.Log.Timestamp, file.Log.Level, file.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create logger: %v", err)
	}
	logger.WithField("version", version.Version).Infoln("serve start")

	deadlock.Opts.Disable = !detectDeadlocks
	deadlock.Opts.DeadlockTimeout = 15 * time.Second
	if !deadlock.Opts.Disable {
		logger.Warnln("enabled automatic deadlock detector")
	}

	config := &cfg.Config{
		Logger: logger,

		RequestLog: file.RequestLog,

		WebsocketMaxMessageSize: file.WebsocketMaxMessageSize,
		CallIdleTimeout:         file.CallIdleTimeout,
	}

	config.HeaderExtensions, err = sdppatch.ParseHeaderExtensionPolicy(file.HeaderExtensions)
	if err != nil {
		return fmt.Errorf("invalid header-extensions: %w", err)
	}
	logger.WithField("policy", config.HeaderExtensions).Infoln("rtp header extension policy")

	listenAddr, _ := flags.GetString("listen")
	if listenAddr == "" {
		listenAddr = os.Getenv("SDPGUARDD_LISTEN")
	}
	if listenAddr == "" {
		listenAddr = file.Listen
	}
	config.ListenAddr = listenAddr

	// Metrics support.
	config.WithMetrics = file.Metrics.Enabled
	config.MetricsListenAddr = file.Metrics.Listen
	if config.WithMetrics && config.MetricsListenAddr != "" {
		reg := prometheus.NewPedanticRegistry()
		config.Metrics = prometheus.WrapRegistererWithPrefix("sdpguardd_", reg)
		// Add the standard process and Go metrics to the custom registry.
		reg.MustRegister(
			prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
			prometheus.NewGoCollector(),
		)
		go func() {
			metricsListen := config.MetricsListenAddr
			handler := http.NewServeMux()
			logger.WithField("listenAddr", metricsListen).Infoln("metrics enabled, starting listener")
			handler.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			err := http.ListenAndServe(metricsListen, handler)
			if err != nil {
				logger.WithError(err).Errorln("unable to start metrics listener")
			}
		}()
	}

	srv, err := server.NewServer(config)
	if err != nil {
		return fmt.Errorf("failed to create server: %v", err)
	}

	// Profiling support.
	withPprof, _ := flags.GetBool("with-pprof")
	pprofListenAddr, _ := flags.GetString("pprof-listen")
	if withPprof && pprofListenAddr != "" {
		runtime.SetMutexProfileFraction(5)
		go func() {
			pprofListen := pprofListenAddr
			logger.WithField("listenAddr", pprofListen).Infoln("pprof enabled, starting listener")
			err := http.ListenAndServe(pprofListen, nil)
			if err != nil {
				logger.WithError(err).Errorln("unable to start pprof listener")
			}
		}()
	}

	logger.Infoln("serve started")
	return srv.Serve(ctx)
}
