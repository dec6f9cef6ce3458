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
	"strings"
)

// Placeholder is the single substitution marker a prompt template body
// must contain. Caller text is inserted verbatim; the format has no other
// control characters, so no escaping is performed.
const Placeholder = "{text}"

// PromptLibrary holds the prompt templates parsed from the prompts
// markdown document. One "## <kind>" heading per transformation kind, with
// the body block below it. Parsed once at startup, read-only afterwards
// and therefore safe for concurrent use.
type PromptLibrary struct {
	templates map[string]string
}

// LoadPromptLibrary parses the prompts document and verifies every
// required kind is present. A missing required kind is fatal at startup,
// not deferred to request time.
func LoadPromptLibrary(path string, required []string) (*PromptLibrary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file %s: %w", path, err)
	}

	lib := &PromptLibrary{templates: parsePromptSections(string(data))}

	for _, kind := range required {
		body, ok := lib.templates[kind]
		if !ok {
			return nil, fmt.Errorf("prompts file %s is missing template %q", path, kind)
		}
		if !strings.Contains(body, Placeholder) {
			return nil, fmt.Errorf("template %q in %s has no %s placeholder", kind, path, Placeholder)
		}
	}

	return lib, nil
}

// parsePromptSections splits the document on "## " headings. The body of
// a section is everything up to the next heading, with surrounding
// whitespace trimmed but interior lines preserved byte-for-byte.
func parsePromptSections(content string) map[string]string {
	sections := make(map[string]string)

	var name string
	var body []string
	flush := func() {
		if name != "" {
			sections[name] = strings.TrimSpace(strings.Join(body, "\n"))
		}
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "## ") {
			flush()
			name = strings.TrimSpace(strings.TrimPrefix(line, "## "))
			body = body[:0]
			continue
		}
		if name != "" {
			body = append(body, line)
		}
	}
	flush()

	return sections
}

// Compose looks up the template for the given kind and substitutes the
// caller text into its placeholder.
func (l *PromptLibrary) Compose(kind, text string) (string, error) {
	body, ok := l.templates[kind]
	if !ok {
		return "", NewNotFoundError("template", kind)
	}
	return strings.ReplaceAll(body, Placeholder, text), nil
}

// Kinds returns the template names found in the document.
func (l *PromptLibrary) Kinds() []string {
	kinds := make([]string, 0, len(l.templates))
	for kind := range l.templates {
		kinds = append(kinds, kind)
	}
	return kinds
}
