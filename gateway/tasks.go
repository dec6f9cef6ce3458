// Copyright 2025 AxonFlow
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

package gateway

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// TaskSpec describes one named generation task from tasks.yaml.
type TaskSpec struct {
	Description string `yaml:"description"`
}

// TaskRegistry holds the enumerated task names a caller may invoke via
// POST /task/{taskName}. Loaded once at startup, read-only afterwards.
type TaskRegistry struct {
	tasks map[string]TaskSpec
}

// LoadTaskRegistry parses the tasks.yaml document. An unreadable or
// malformed file is fatal at startup, not deferred to request time.
func LoadTaskRegistry(path string) (*TaskRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tasks file %s: %w", path, err)
	}

	tasks := make(map[string]TaskSpec)
	if err := yaml.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse tasks file %s: %w", path, err)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("tasks file %s defines no tasks", path)
	}

	return &TaskRegistry{tasks: tasks}, nil
}

// Has reports whether the named task is configured.
func (r *TaskRegistry) Has(name string) bool {
	_, ok := r.tasks[name]
	return ok
}

// Names returns the configured task names in sorted order.
func (r *TaskRegistry) Names() []string {
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
