// Command grid-console is an interactive console for grid devices.
//
// It opens a session on a serial port, keeps a live mirror of the LED
// and key state, and exposes the LED instruction set as interactive
// commands. Incoming key events are echoed between prompts.
//
// Usage:
//
//	grid-console [flags]
//
// Flags:
//
//	-port string          Serial port the device sits behind (e.g. /dev/ttyUSB0)
//	-config string        Configuration file path (YAML)
//	-protocol-log string  Write protocol events to a .glog file
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-offload-decode       Decode inbound chunks on a dedicated worker
//
// Examples:
//
//	# Connect to a grid on a serial port
//	grid-console -port /dev/ttyUSB0
//
//	# Record all protocol traffic for later analysis with grid-log
//	grid-console -port /dev/ttyUSB0 -protocol-log session.glog
//
//	# Use a config file
//	grid-console -config grid.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gridproto/grid-go/cmd/grid-console/interactive"
	"github.com/gridproto/grid-go/pkg/log"
	"github.com/gridproto/grid-go/pkg/serialport"
	"github.com/gridproto/grid-go/pkg/session"
	"github.com/gridproto/grid-go/pkg/wire"
)

// Config holds the console configuration. A YAML config file provides
// defaults; flags set on the command line win.
type Config struct {
	Port             string        `yaml:"port"`
	ProtocolLog      string        `yaml:"protocol_log"`
	LogLevel         string        `yaml:"log_level"`
	SettleDelay      time.Duration `yaml:"settle_delay"`
	ReconnectDelay   time.Duration `yaml:"reconnect_delay"`
	QueueSize        int           `yaml:"queue_size"`
	SubscriberBuffer int           `yaml:"subscriber_buffer"`
	OffloadDecode    bool          `yaml:"offload_decode"`

	// Intensity, when set, is applied to the device right after
	// connecting.
	Intensity *int `yaml:"intensity"`
}

var (
	config     Config
	configFile string
)

func init() {
	flag.StringVar(&config.Port, "port", "", "Serial port the device sits behind (e.g. /dev/ttyUSB0)")
	flag.StringVar(&configFile, "config", "", "Configuration file path (YAML)")
	flag.StringVar(&config.ProtocolLog, "protocol-log", "", "Write protocol events to a .glog file")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&config.OffloadDecode, "offload-decode", false, "Decode inbound chunks on a dedicated worker")
}

func main() {
	flag.Parse()

	if configFile != "" {
		if err := loadConfigFile(configFile, &config, flagsSet()); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
	}

	setupLogging(config.LogLevel)

	if config.Port == "" {
		fmt.Fprintln(os.Stderr, "Error: -port required (or set port in the config file)")
		flag.Usage()
		os.Exit(1)
	}

	logger, closeLogger, err := buildProtocolLogger(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up protocol log: %v\n", err)
		os.Exit(1)
	}
	defer closeLogger()

	sess, err := session.New(session.Config{
		Dial:             serialport.Dialer(config.Port),
		SettleDelay:      config.SettleDelay,
		ReconnectDelay:   config.ReconnectDelay,
		QueueSize:        config.QueueSize,
		SubscriberBuffer: config.SubscriberBuffer,
		OffloadDecode:    config.OffloadDecode,
		Logger:           logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create session: %v\n", err)
		os.Exit(1)
	}
	defer sess.Close()

	slog.Info("connecting", "port", config.Port)
	if err := sess.Connect(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect: %v\n", err)
		os.Exit(1)
	}
	slog.Info("connected", "device", sess.DeviceID(), "size", sess.Dimensions().String())

	if config.Intensity != nil {
		if err := sess.Submit(wire.SetIntensity{Level: *config.Intensity}); err != nil {
			slog.Warn("failed to apply configured intensity", "err", err)
		}
	}

	console, err := interactive.New(sess)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start console: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ctrl-C outside the prompt and SIGTERM both end the session.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	console.Run(ctx, cancel)
}

// loadConfigFile merges a YAML config file into cfg. Values set via
// command-line flags are kept.
func loadConfigFile(path string, cfg *Config, set map[string]bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if !set["port"] && fileCfg.Port != "" {
		cfg.Port = fileCfg.Port
	}
	if !set["protocol-log"] && fileCfg.ProtocolLog != "" {
		cfg.ProtocolLog = fileCfg.ProtocolLog
	}
	if !set["log-level"] && fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if !set["offload-decode"] {
		cfg.OffloadDecode = fileCfg.OffloadDecode
	}
	cfg.SettleDelay = fileCfg.SettleDelay
	cfg.ReconnectDelay = fileCfg.ReconnectDelay
	cfg.QueueSize = fileCfg.QueueSize
	cfg.SubscriberBuffer = fileCfg.SubscriberBuffer
	cfg.Intensity = fileCfg.Intensity
	return nil
}

// flagsSet returns the names of flags explicitly set on the command line.
func flagsSet() map[string]bool {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}

// buildProtocolLogger assembles the session's protocol logger: a file
// logger when -protocol-log is given, plus an slog adapter at debug
// level so traffic shows up on the console log.
func buildProtocolLogger(cfg Config) (log.Logger, func(), error) {
	var loggers []log.Logger
	closeLogger := func() {}

	if cfg.ProtocolLog != "" {
		fl, err := log.NewFileLogger(cfg.ProtocolLog)
		if err != nil {
			return nil, nil, err
		}
		loggers = append(loggers, fl)
		closeLogger = func() { fl.Close() }
	}

	if cfg.LogLevel == "debug" {
		loggers = append(loggers, log.NewSlogAdapter(slog.Default()))
	}

	switch len(loggers) {
	case 0:
		return log.NoopLogger{}, closeLogger, nil
	case 1:
		return loggers[0], closeLogger, nil
	default:
		return log.NewMultiLogger(loggers...), closeLogger, nil
	}
}

// setupLogging configures the application log level.
func setupLogging(level string) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}
