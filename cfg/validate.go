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

package cfg

import (
	"fmt"
	"strings"

	"github.com/googlecloudplatform/backpackfs/internal/config"
)

// Validate checks a decoded Config for combinations the decode hooks
// can't catch on their own, such as cross-field constraints.
func Validate(c *Config) error {
	if c.Log.Severity != "" && !contains(validSeverities, string(c.Log.Severity)) {
		return fmt.Errorf("cfg: invalid log.severity %q", c.Log.Severity)
	}

	format := strings.ToLower(c.Log.Format)
	if format != "" && format != "text" && format != "json" {
		return fmt.Errorf("cfg: invalid log.format %q, want text or json", c.Log.Format)
	}

	if c.WorkerPool.PriorityWorkers < 0 || c.WorkerPool.NormalWorkers < 0 {
		return fmt.Errorf("cfg: worker-pool counts must not be negative")
	}
	if c.WorkerPool.PriorityWorkers == 0 && c.WorkerPool.NormalWorkers == 0 {
		return fmt.Errorf("cfg: worker-pool must have at least one priority or normal worker")
	}

	if c.OpenPolicy != "" && !contains(validPolicies, string(c.OpenPolicy)) {
		return fmt.Errorf("cfg: invalid open-policy %q", c.OpenPolicy)
	}

	return nil
}

// ToInternal converts a validated Config into the plain-data shape the
// rest of the program (logger.Init, workerpool.NewStaticWorkerPool,
// dropin.Config) actually consumes.
func (c Config) ToInternal() config.Config {
	return config.Config{
		Log: config.LogConfig{
			Severity:  config.LogSeverity(strings.ToUpper(string(c.Log.Severity))),
			Format:    strings.ToLower(c.Log.Format),
			FilePath:  c.Log.FilePath,
			MaxSizeMB: c.Log.MaxSizeMB,
			Backups:   c.Log.Backups,
			Compress:  c.Log.Compress,
		},
		WorkerPool: config.WorkerPoolConfig{
			PriorityWorkers: uint32(c.WorkerPool.PriorityWorkers),
			NormalWorkers:   uint32(c.WorkerPool.NormalWorkers),
		},
		Policy: config.OpenPolicy(strings.ToLower(string(c.OpenPolicy))),
	}
}
