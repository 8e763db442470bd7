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

// Package config holds the plain-data configuration types shared by the
// logger, the worker pool, and the dropin facade. It intentionally has
// no knowledge of flags or files — cfg is the layer that knows how to
// populate a Config from a YAML file plus pflag overrides.
package config

// LogSeverity is a logging threshold, ordered from most to least verbose.
type LogSeverity string

const (
	TRACE   LogSeverity = "TRACE"
	DEBUG   LogSeverity = "DEBUG"
	INFO    LogSeverity = "INFO"
	WARNING LogSeverity = "WARNING"
	ERROR   LogSeverity = "ERROR"
	OFF     LogSeverity = "OFF"
)

// LogConfig controls the ambient logger: its threshold, wire format, and
// optional rotated log file.
type LogConfig struct {
	Severity LogSeverity `yaml:"severity,omitempty" mapstructure:"severity"`
	Format   string      `yaml:"format,omitempty" mapstructure:"format"`
	FilePath string      `yaml:"file-path,omitempty" mapstructure:"file-path"`

	// MaxSizeMB, Backups and Compress are passed straight through to the
	// lumberjack.Logger backing FilePath; they are ignored when FilePath
	// is empty, which logs to stderr uncompressed and unrotated.
	MaxSizeMB int  `yaml:"max-size-mb,omitempty" mapstructure:"max-size-mb"`
	Backups   int  `yaml:"backup-file-count,omitempty" mapstructure:"backup-file-count"`
	Compress  bool `yaml:"compress,omitempty" mapstructure:"compress"`
}

// WorkerPoolConfig sizes the ambient-scope worker pool.
type WorkerPoolConfig struct {
	PriorityWorkers uint32 `yaml:"priority-workers,omitempty" mapstructure:"priority-workers"`
	NormalWorkers   uint32 `yaml:"normal-workers,omitempty" mapstructure:"normal-workers"`
}

// OpenPolicy selects the backend a dropin.File is created against.
type OpenPolicy string

const (
	// OpenOnDisk creates plain *os.File-backed files.
	OpenOnDisk OpenPolicy = "on-disk"
	// OpenInMemory creates files backed only by an in-process buffer.
	OpenInMemory OpenPolicy = "in-memory"
	// OpenThreadLocalBackpack routes files through the ambient backpack
	// bound to the calling worker by dropin.Scope.
	OpenThreadLocalBackpack OpenPolicy = "thread-local-backpack"
)

// Config is the full, validated configuration surface for a backpackfs
// process: logging, worker pool sizing, and the default open policy.
type Config struct {
	Log        LogConfig        `yaml:"log,omitempty" mapstructure:"log"`
	WorkerPool WorkerPoolConfig `yaml:"worker-pool,omitempty" mapstructure:"worker-pool"`
	Policy     OpenPolicy       `yaml:"open-policy,omitempty" mapstructure:"open-policy"`
}

// severityRank orders severities from most to least verbose so callers
// can compare thresholds without string-matching every level by hand.
var severityRank = map[LogSeverity]int{
	TRACE:   0,
	DEBUG:   1,
	INFO:    2,
	WARNING: 3,
	ERROR:   4,
	OFF:     5,
}

// Enabled reports whether a message at level would be emitted when the
// configured threshold is sev.
func (sev LogSeverity) Enabled(level LogSeverity) bool {
	return severityRank[level] >= severityRank[sev]
}

// DefaultConfig returns the configuration used when no file or flags
// override it: human-readable text logs at INFO, a single on-disk
// backend, and a worker pool sized to one priority and three normal
// workers.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Severity: INFO,
			Format:   "text",
		},
		WorkerPool: WorkerPoolConfig{
			PriorityWorkers: 1,
			NormalWorkers:   3,
		},
		Policy: OpenOnDisk,
	}
}
