// Package main starts a namesmith server
package main

import (
	"fmt"
	"io"
	"os"

	rice "github.com/GeertJohan/go.rice"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/synacor/namesmith/catalog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultPort = 5000

var rootCmd = &cobra.Command{
	Use:   "namesmith",
	Short: "namesmith serves a catalog of random name generators.",
	Long: `namesmith serves name generator pages. Each page draws a handful of
random names from a static list and shows their descriptions on request.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		return configureLogger()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "path to a config file (default: ./config.json or /etc/namesmith/config.json)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	viper.BindPFlag("config", flags.Lookup("config"))
	viper.BindPFlag("log_level", flags.Lookup("log-level"))

	rootCmd.AddCommand(serveCmd, listCmd, generateCmd, describeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file (if any) and the NAMESMITH_ environment.
func loadConfig() error {
	// reminder, that viper will only look at the first config file it sees
	if path := viper.GetString("config"); path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("json")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/namesmith")
	}

	viper.SetEnvPrefix("namesmith")
	for _, key := range []string{"port", "tls_port", "force_tls", "tls_private_key", "tls_public_key",
		"log_level", "log_format", "log_file", "log_max_size_mb", "log_max_backups", "log_max_age_days", "debug",
		"default_count", "max_count"} {
		viper.BindEnv(key)
	}

	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("log_max_size_mb", 20)
	viper.SetDefault("log_max_backups", 10)
	viper.SetDefault("log_max_age_days", 30)
	viper.SetDefault("port", defaultPort)

	if err := viper.ReadInConfig(); err != nil {
		// a missing config file is fine, everything has a default
		if _, isConfigFileNotFoundError := err.(viper.ConfigFileNotFoundError); !isConfigFileNotFoundError {
			return fmt.Errorf("could not read config: %w", err)
		}
	}

	return nil
}

func configureLogger() error {
	levelStr := viper.GetString("log_level")
	level, err := log.ParseLevel(levelStr)
	if err != nil {
		return fmt.Errorf("level %s does not exist", levelStr)
	}
	log.SetLevel(level)

	switch viper.GetString("log_format") {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	if file := viper.GetString("log_file"); file != "" {
		log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    viper.GetInt("log_max_size_mb"),
			MaxBackups: viper.GetInt("log_max_backups"),
			MaxAge:     viper.GetInt("log_max_age_days"),
		}))
	}

	return nil
}

// openCatalog locates the data box and reads the catalog manifest from it.
func openCatalog() (*catalog.Catalog, *catalog.Loader, error) {
	dbox := rice.MustFindBox("data")

	cat, err := catalog.Open(dbox)
	if err != nil {
		return nil, nil, err
	}

	return cat, catalog.NewLoader(dbox), nil
}
