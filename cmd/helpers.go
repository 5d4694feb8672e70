package cmd

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/debug"
	"strings"

	"github.com/bruin-data/ecomstar/pkg/config"
	"github.com/bruin-data/ecomstar/pkg/warehouse"
	"github.com/manifoldco/promptui"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// confirmEnvironment asks before rebuilding tables in an environment whose name looks like
// production, unless forced.
func confirmEnvironment(env string, force bool, stdin io.ReadCloser) error {
	if force || !strings.Contains(strings.ToLower(env), "prod") {
		return nil
	}

	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("You are about to rebuild tables in the '%s' environment. Are you sure you want to continue", env),
		IsConfirm: true,
		Stdin:     stdin,
	}

	if _, err := prompt.Run(); err != nil {
		fmt.Printf("The operation is cancelled.\n")
		return cli.Exit("", 1)
	}

	return nil
}

func forceFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "force",
		Usage: "do not ask for confirmation in production environments",
	}
}

func RecoverFromPanic() {
	if err := recover(); err != nil {
		log.Println("=======================================")
		log.Println("ecomstar encountered an unexpected error, please report the issue.")
		log.Println(err)
		log.Println("=======================================")
		b := bufio.NewScanner(bytes.NewBuffer(debug.Stack()))
		for b.Scan() {
			log.Println(b.Text())
		}
		os.Exit(1)
	}
}

// makeLogger builds the console logger, debug enables debug level and caller info. When a log file
// is given every entry is written there as JSON too.
func makeLogger(isDebug bool, logFile string) (*zap.SugaredLogger, error) {
	level := zap.InfoLevel
	if isDebug {
		level = zap.DebugLevel
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if !isDebug {
		encoderConfig.CallerKey = ""
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stderr), level),
	}

	if logFile != "" {
		sink, _, err := zap.Open(logFile)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), sink, level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Sugar(), nil
}

const (
	configFlagName      = "config-file"
	environmentFlagName = "environment"
	logFileFlagName     = "log-file"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    configFlagName,
		Aliases: []string{"config"},
		Usage:   "the path to the config file",
		Value:   config.DefaultConfigFile,
		EnvVars: []string{"ECOMSTAR_CONFIG_FILE"},
	}
}

func environmentFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    environmentFlagName,
		Aliases: []string{"e", "env"},
		Usage:   "the environment to use, the default environment of the config file when empty",
		EnvVars: []string{"ECOMSTAR_ENVIRONMENT"},
	}
}

func logFileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  logFileFlagName,
		Usage: "also write the logs to the given file",
	}
}

// session is everything a command needs to talk to the warehouse of the selected environment.
type session struct {
	config  *config.Config
	options *config.Options
	client  *warehouse.Client
	logger  *zap.SugaredLogger
}

func (s *session) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			s.logger.Debugw("failed to close the warehouse connection", "error", err)
		}
	}
	_ = s.logger.Sync()
}

// openSession loads the config, applies the environment overrides and connects to the warehouse.
// Failures are printed and turned into an exit code.
func openSession(c *cli.Context, isDebug bool) (*session, error) {
	log, err := makeLogger(isDebug, c.String(logFileFlagName))
	if err != nil {
		errorPrinter.Printf("Failed to create the logger: %v\n", err)
		return nil, cli.Exit("", 1)
	}

	configFile := c.String(configFlagName)
	cm, err := config.Load(fs, configFile, c.String(environmentFlagName))
	if err != nil {
		errorPrinter.Printf("Failed to load the config file at '%s': %v\n", configFile, err)
		return nil, cli.Exit("", 1)
	}
	log.Debugw("using environment", "environment", cm.SelectedEnvironmentName, "connection", cm.SelectedEnvironment.Connection.Type())

	opts, err := cm.SelectedEnvironment.Pipeline.Resolve()
	if err != nil {
		errorPrinter.Printf("Invalid pipeline options in environment '%s': %v\n", cm.SelectedEnvironmentName, err)
		return nil, cli.Exit("", 1)
	}

	connector, dialect, err := cm.SelectedEnvironment.Connection.Warehouse()
	if err != nil {
		errorPrinter.Printf("Invalid connection in environment '%s': %v\n", cm.SelectedEnvironmentName, err)
		return nil, cli.Exit("", 1)
	}

	client, err := warehouse.NewClient(c.Context, connector, dialect)
	if err != nil {
		errorPrinter.Printf("Failed to connect to the %s warehouse: %v\n", dialect.Name(), err)
		return nil, cli.Exit("", 1)
	}

	return &session{config: cm, options: opts, client: client, logger: log}, nil
}
