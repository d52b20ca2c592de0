package cmd

import (
	"os"
	"path"
	"strings"

	"github.com/rifflock/lfshook"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/c9s/chartdesk/pkg/cmd/cmdutil"
	"github.com/c9s/chartdesk/pkg/config"
)

// userConfig is loaded by the root pre-run hook before any sub-command runs.
var userConfig *config.Config

var RootCmd = &cobra.Command{
	Use:   "chartdesk",
	Short: "chartdesk financial chart workbench",
	Long:  "annotate, compare and export financial price charts",

	// SilenceUsage is an option to silence usage when an error occurs.
	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// the flags are parsed by now
		setLogLevel()

		dotenvFiles := viper.GetStringSlice("dotenv")
		if err := config.LoadDotenv(dotenvFiles...); err != nil {
			return err
		}

		var err error
		userConfig, err = config.Load(viper.GetString("config"))
		if err != nil {
			return err
		}

		if dir := viper.GetString("data-dir"); dir != "" {
			userConfig.Datasource.Directory = dir
		}

		return nil
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	cmdutil.PersistentFlags(RootCmd.PersistentFlags())
}

func bindFlags() {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.SetEnvPrefix("chartdesk")

	// Enable environment variable binding, the env vars are not overloaded yet.
	viper.AutomaticEnv()

	// Once the flags are defined, we can bind config keys with flags.
	if err := viper.BindPFlags(RootCmd.PersistentFlags()); err != nil {
		log.WithError(err).Errorf("failed to bind persistent flags. please check the flag settings.")
	}

	if err := viper.BindPFlags(RootCmd.Flags()); err != nil {
		log.WithError(err).Errorf("failed to bind local flags. please check the flag settings.")
	}
}

// setLogLevel reads --debug or CHARTDESK_DEBUG.
func setLogLevel() {
	if viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
}

func Execute() {
	bindFlags()

	log.SetFormatter(&prefixed.TextFormatter{})

	logger := log.StandardLogger()

	environment := os.Getenv("CHARTDESK_ENV")
	switch environment {
	case "production", "prod":
		writer := &lumberjack.Logger{
			Filename:   path.Join("log", "chartdesk.log"),
			MaxSize:    100, // megabytes
			MaxBackups: 7,
			MaxAge:     28, // days
			Compress:   true,
		}

		logger.AddHook(
			lfshook.NewHook(
				lfshook.WriterMap{
					log.DebugLevel: writer,
					log.InfoLevel:  writer,
					log.WarnLevel:  writer,
					log.ErrorLevel: writer,
					log.FatalLevel: writer,
				},
				&log.JSONFormatter{},
			),
		)
	}

	if err := RootCmd.Execute(); err != nil {
		log.WithError(err).Fatalf("cannot execute command")
	}
}
