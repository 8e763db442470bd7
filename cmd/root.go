// Copyright 2024 The Backpackfs Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd implements the backpackfs command-line tool: inspecting,
// extracting from, and building single-file backpack archives.
package cmd

import (
	"fmt"

	"github.com/googlecloudplatform/backpackfs/cfg"
	"github.com/googlecloudplatform/backpackfs/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile       string
	bindErr       error
	mountConfig   cfg.Config
	unmarshalErr  error
)

var rootCmd = &cobra.Command{
	Use:   "backpackfs",
	Short: "Inspect and build single-file backpack archives",
	Long: `backpackfs reads and writes backpack archives: a single file
holding many named byte streams behind a small chained table of
contents, with no external index or database required.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("reading config file %s: %w", cfgFile, err)
			}
		}
		if err := viper.Unmarshal(&mountConfig, viper.DecodeHook(cfg.DecodeHook())); err != nil {
			unmarshalErr = err
		}
		if unmarshalErr != nil {
			return unmarshalErr
		}
		if err := cfg.Validate(&mountConfig); err != nil {
			return err
		}
		return logger.Init(mountConfig.ToInternal().Log)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "Path to a YAML config file.")
	bindErr = cfg.BindFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(lsCmd, catCmd, createCmd, rmCmd)
}

// Execute runs the backpackfs CLI; it is the only symbol main needs.
func Execute() error {
	return rootCmd.Execute()
}
