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
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/uxtran/internal/config"
	"github.com/valpere/uxtran/internal/logging"
)

var version = "0.1.0"

var (
	configFile string

	cfg    *config.Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "uxtran",
	Short: "Batch translator and UX writer for UI text",
	Long: `A CLI application that translates UI texts, or rewrites them for clarity,
by sending them to an LLM backend in small chunks.

Chunks that keep failing are not lost: they come back with a deterministic
stand-in ([EN] prefix for translations, "(improvement failed)" for rewrites)
and are marked degraded.

Supported backends: openai, gemini, ollama, google (translate only)

Use "uxtran translate --help" or "uxtran rewrite --help" for options.`,
	Version:       version,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v := viper.New()
		bindings := map[string]string{
			"backend.provider": "provider",
			"backend.model":    "model",
			"backend.base_url": "base-url",
			"log_level":        "log-level",
		}
		for key, flag := range bindings {
			if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
				return err
			}
		}

		loaded, err := config.Load(v, configFile)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = logging.New(os.Stderr, cfg.LogLevel)
		return nil
	},
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default .uxtran.yaml in the working or home directory)")
	rootCmd.PersistentFlags().String("provider", "", "Backend provider: openai, gemini, ollama, google")
	rootCmd.PersistentFlags().String("model", "", "Model name (backend default if empty)")
	rootCmd.PersistentFlags().String("base-url", "", "Backend base URL override")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
}
