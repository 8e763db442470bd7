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

// DefaultConfig mirrors the flag defaults registered in BindFlags, for
// callers (tests, the CLI's --help text) that need a Config without
// going through pflag/viper at all.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Severity:  "INFO",
			Format:    "text",
			MaxSizeMB: 100,
		},
		WorkerPool: WorkerPoolConfig{
			PriorityWorkers: 1,
			NormalWorkers:   3,
		},
		OpenPolicy: "on-disk",
	}
}
