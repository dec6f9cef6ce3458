// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package gateway

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTasksFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadTaskRegistry(t *testing.T) {
	path := writeTasksFile(t, `
generate_posts:
  description: Generate social media posts.
generate_newsletter:
  description: Generate newsletter copy.
`)

	reg, err := LoadTaskRegistry(path)
	require.NoError(t, err)

	assert.True(t, reg.Has("generate_posts"))
	assert.True(t, reg.Has("generate_newsletter"))
	assert.False(t, reg.Has("generate_podcast"))
	assert.Equal(t, []string{"generate_newsletter", "generate_posts"}, reg.Names())
}

func TestLoadTaskRegistry_MissingFile(t *testing.T) {
	_, err := LoadTaskRegistry(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadTaskRegistry_MalformedYAML(t *testing.T) {
	path := writeTasksFile(t, "generate_posts: [unclosed")
	_, err := LoadTaskRegistry(path)
	assert.Error(t, err)
}

func TestLoadTaskRegistry_Empty(t *testing.T) {
	path := writeTasksFile(t, "")
	_, err := LoadTaskRegistry(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no tasks")
}
