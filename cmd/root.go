/*
Copyright © 2025 Mykola Lutsiv

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
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "0.1.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "draftforge",
	Short: "LLM blog draft refinement and formatting pipeline",
	Long: `DraftForge takes a raw markdown blog draft, generates the surrounding
editorial material (introduction, conclusion, summary, title options),
and reformats the assembled post for publication. Formatting is gated by
a deterministic rubric: the LLM output is scored and retried with an
escalating prompt until it passes or the attempt ceiling is spent.

Use "draftforge refine --help" for pipeline options.`,
	Version: version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./draftforge.yaml or $HOME/.draftforge.yaml)")
}

// initConfig loads the optional config file and binds DRAFTFORGE_* env vars.
// A missing config file is not an error; an unreadable one is fatal.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".draftforge")
	}

	viper.SetEnvPrefix("DRAFTFORGE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
			os.Exit(1)
		}
	}
}
