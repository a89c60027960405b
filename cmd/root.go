// Package cmd is the modhost command line.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/modhost/internal/config"
	"github.com/zjrosen/modhost/internal/log"
	"github.com/zjrosen/modhost/internal/paths"
)

var (
	version   = "dev"
	cfgFile   string
	rootDir   string
	debugFlag bool

	// app is built in PersistentPreRunE and closed by Execute.
	app *application
)

var rootCmd = &cobra.Command{
	Use:   "modhost",
	Short: "Discover, order and manage application modules",
	Long: `modhost discovers modules described by module.json manifests, orders
them for registration and boot, and enables, disables or deletes them.

Modules are looked up in {paths.modules}/* and, when scan.enabled is set, in
every scan.paths pattern.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .modhost/config.yaml, then ~/.config/modhost/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "root", "r", "",
		"project root; relative config paths resolve against it (default: nearest directory with .modhost)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"enable debug logging (also MODHOST_DEBUG)")
}

func projectRoot() (string, error) {
	if rootDir != "" {
		return filepath.Abs(rootDir)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	return paths.FindRoot(wd), nil
}

func initConfig() {
	v := viper.GetViper()
	config.SetDefaults(v)
	v.SetEnvPrefix("MODHOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	root, err := projectRoot()
	if err != nil {
		root = "."
	}
	localConfig := filepath.Join(paths.ResolveConfigDir(root), paths.ConfigFileName)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. {root}/.modhost/config.yaml
		// 2. ~/.config/modhost/config.yaml (user config)
		if _, err := os.Stat(localConfig); err == nil {
			v.SetConfigFile(localConfig)
		} else {
			home, _ := os.UserHomeDir()
			v.AddConfigPath(filepath.Join(home, ".config", "modhost"))
			v.SetConfigName("config")
			v.SetConfigType("yaml")
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// No config file found anywhere - create default in the project
			if writeErr := config.WriteDefaultConfig(localConfig); writeErr == nil {
				v.SetConfigFile(localConfig)
				_ = v.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		} else {
			log.ErrorErr(log.CatConfig, "reading config", err, "file", v.ConfigFileUsed())
		}
	}
}

// configPath is the file config:set writes to.
func configPath() (string, error) {
	if used := viper.ConfigFileUsed(); used != "" {
		return used, nil
	}
	root, err := projectRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(paths.ResolveConfigDir(root), paths.ConfigFileName), nil
}

func setup(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[annotationNoApp] != "" {
		return nil
	}

	if debugFlag || os.Getenv("MODHOST_DEBUG") != "" {
		if err := initLogging(viper.GetString("log.file")); err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		level := log.ParseLevel(viper.GetString("log.level"))
		if debugFlag {
			level = log.LevelDebug
		}
		log.SetMinLevel(level)
		log.SetFormat(log.ParseFormat(viper.GetString("log.format")))
		log.Info(log.CatConfig, "modhost starting", "config", viper.ConfigFileUsed())
	}

	root, err := projectRoot()
	if err != nil {
		return err
	}

	app, err = newApplication(cmd.Context(), viper.GetViper(), root)
	return err
}

func initLogging(file string) error {
	if file == "" {
		log.InitWriter(os.Stderr)
		return nil
	}
	_, err := log.Init(file)
	return err
}

func teardown() error {
	if app == nil {
		return nil
	}
	err := app.Close()
	app = nil
	return err
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if closeErr := teardown(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
