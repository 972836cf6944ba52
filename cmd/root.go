/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Jjjmaes/AIT-sub001/internal/config"
	"github.com/Jjjmaes/AIT-sub001/internal/diag"
)

var version = "0.3.0"

var (
	cfgFile string
	actorID int64
	asJSON  bool

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ait",
	Short: "Segment translation and review workflow",
	Long: `Drives source segments through AI translation, AI review and human
confirmation.

Projects hold files; files hold segments. Segments are translated from the
project translation memory or an AI provider, reviewed by an AI reviewer,
corrected by a human reviewer and finally confirmed into the memory.

Every command acts on behalf of the user given with --as.

Configuration is read from ait.yaml (or --config), AIT_* environment
variables and flags, in increasing priority.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v := viper.New()
		for key, flag := range map[string]string{
			"db":         "db",
			"log.level":  "log-level",
			"log.format": "log-format",
		} {
			if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
				return err
			}
		}
		var err error
		if cfg, err = config.Load(v, cfgFile); err != nil {
			return err
		}
		logger = diag.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)
		return nil
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(exitCode(diag.Classify(err)))
	}
}

func exitCode(c diag.Code) int {
	switch c {
	case diag.CodeValidation:
		return 2
	case diag.CodeNotFound:
		return 3
	case diag.CodeForbidden:
		return 4
	case diag.CodePrecondition:
		return 5
	case diag.CodeProvider, diag.CodeNetwork:
		return 6
	case diag.CodeCancel:
		return 130
	}
	return 1
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./ait.yaml when present)")
	rootCmd.PersistentFlags().String("db", "", "Database path")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().Int64Var(&actorID, "as", 0, "ID of the user performing the command")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Print results as JSON")
}
