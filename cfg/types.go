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

// LogSeverity is a string type distinct from internal/config.LogSeverity
// so mapstructure's decode hook can dispatch on its reflect.Type without
// colliding with any other string-based config field.
type LogSeverity string

// OpenPolicy mirrors internal/config.OpenPolicy for the same reason.
type OpenPolicy string

var validSeverities = []string{"TRACE", "DEBUG", "INFO", "WARNING", "ERROR", "OFF"}

var validPolicies = []string{"on-disk", "in-memory", "thread-local-backpack"}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
