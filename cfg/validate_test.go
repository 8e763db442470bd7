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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_DefaultConfigIsValid(t *testing.T) {
	c := DefaultConfig()
	assert.NoError(t, Validate(&c))
}

func TestValidate_RejectsUnknownSeverity(t *testing.T) {
	c := DefaultConfig()
	c.Log.Severity = "VERBOSE"
	assert.Error(t, Validate(&c))
}

func TestValidate_RejectsUnknownFormat(t *testing.T) {
	c := DefaultConfig()
	c.Log.Format = "xml"
	assert.Error(t, Validate(&c))
}

func TestValidate_RejectsZeroWorkers(t *testing.T) {
	c := DefaultConfig()
	c.WorkerPool.PriorityWorkers = 0
	c.WorkerPool.NormalWorkers = 0
	assert.Error(t, Validate(&c))
}

func TestValidate_RejectsUnknownOpenPolicy(t *testing.T) {
	c := DefaultConfig()
	c.OpenPolicy = "cloud"
	assert.Error(t, Validate(&c))
}

func TestConfig_ToInternal(t *testing.T) {
	c := DefaultConfig()
	c.Log.Severity = "debug"
	c.OpenPolicy = "IN-MEMORY"

	internal := c.ToInternal()

	assert.Equal(t, "DEBUG", string(internal.Log.Severity))
	assert.Equal(t, "in-memory", string(internal.Policy))
}
