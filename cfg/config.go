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

// Package cfg is the flag- and file-aware configuration layer: it
// binds pflag flags into viper, decodes the merged result into a
// Config with mapstructure, and validates it. internal/config holds
// the plain-data shape everything downstream actually consumes; cfg
// is only responsible for getting a Config populated correctly.
package cfg

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the root of the YAML/flag-driven configuration tree.
type Config struct {
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	WorkerPool WorkerPoolConfig `yaml:"worker-pool" mapstructure:"worker-pool"`
	OpenPolicy OpenPolicy       `yaml:"open-policy" mapstructure:"open-policy"`
}

// LogConfig controls the ambient logger.
type LogConfig struct {
	Severity LogSeverity `yaml:"severity" mapstructure:"severity"`
	Format   string      `yaml:"format" mapstructure:"format"`
	FilePath string      `yaml:"file-path" mapstructure:"file-path"`

	MaxSizeMB int  `yaml:"max-size-mb" mapstructure:"max-size-mb"`
	Backups   int  `yaml:"backup-file-count" mapstructure:"backup-file-count"`
	Compress  bool `yaml:"compress" mapstructure:"compress"`
}

// WorkerPoolConfig sizes the ambient-scope worker pool.
type WorkerPoolConfig struct {
	PriorityWorkers int `yaml:"priority-workers" mapstructure:"priority-workers"`
	NormalWorkers   int `yaml:"normal-workers" mapstructure:"normal-workers"`
}

// BindFlags registers every flag this config surface understands on
// flagSet and binds each one into viper under the dotted key
// mapstructure will decode it from.
func BindFlags(flagSet *pflag.FlagSet) error {
	var err error

	flagSet.StringP("log-severity", "", "INFO", "Logging threshold: TRACE, DEBUG, INFO, WARNING, ERROR, or OFF.")
	if err = viper.BindPFlag("log.severity", flagSet.Lookup("log-severity")); err != nil {
		return err
	}

	flagSet.StringP("log-format", "", "text", "Logging wire format: text or json.")
	if err = viper.BindPFlag("log.format", flagSet.Lookup("log-format")); err != nil {
		return err
	}

	flagSet.StringP("log-file", "", "", "Path to a rotated log file; empty means stderr.")
	if err = viper.BindPFlag("log.file-path", flagSet.Lookup("log-file")); err != nil {
		return err
	}

	flagSet.IntP("log-max-size-mb", "", 100, "Maximum size in megabytes of the log file before it gets rotated.")
	if err = viper.BindPFlag("log.max-size-mb", flagSet.Lookup("log-max-size-mb")); err != nil {
		return err
	}

	flagSet.IntP("log-backup-file-count", "", 0, "Number of rotated log files to retain. 0 retains all of them.")
	if err = viper.BindPFlag("log.backup-file-count", flagSet.Lookup("log-backup-file-count")); err != nil {
		return err
	}

	flagSet.BoolP("log-compress", "", false, "Compress rotated log files.")
	if err = viper.BindPFlag("log.compress", flagSet.Lookup("log-compress")); err != nil {
		return err
	}

	flagSet.IntP("priority-workers", "", 1, "Number of worker-pool goroutines reserved for priority jobs.")
	if err = viper.BindPFlag("worker-pool.priority-workers", flagSet.Lookup("priority-workers")); err != nil {
		return err
	}

	flagSet.IntP("normal-workers", "", 3, "Number of worker-pool goroutines available for normal jobs.")
	if err = viper.BindPFlag("worker-pool.normal-workers", flagSet.Lookup("normal-workers")); err != nil {
		return err
	}

	flagSet.StringP("open-policy", "", "on-disk", "Default dropin.File backend: on-disk, in-memory, or thread-local-backpack.")
	if err = viper.BindPFlag("open-policy", flagSet.Lookup("open-policy")); err != nil {
		return err
	}

	return nil
}
