// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, LevelError, ParseLevel(" error "))
	assert.Equal(t, LevelInfo, ParseLevel(""))
	assert.Equal(t, LevelInfo, ParseLevel("bogus"))
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Output: &buf})

	logger.Info("quiet")
	logger.Warn("loud")

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "loud")
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Output: &buf}).With("tenant", "org-1")

	logger.Info("lookup")
	assert.Contains(t, buf.String(), "tenant=org-1")
}

func TestLogger_FileOutput(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, LogDir: dir, Service: "kinctl", Output: &buf})

	logger.Info("persisted", "count", 3)
	require.NoError(t, logger.Close())

	name := "kinctl_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)

	// File output is JSON, console output is text; both carry the message.
	assert.Contains(t, string(data), `"msg":"persisted"`)
	assert.Contains(t, buf.String(), "persisted")
}

func TestLogger_BadDirFallsBack(t *testing.T) {
	var buf bytes.Buffer
	file := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o640))

	// A file where the directory should be cannot be mkdir'd.
	logger := New(Config{Level: LevelInfo, LogDir: file, Output: &buf})
	logger.Info("still works")

	out := buf.String()
	assert.Contains(t, out, "file output disabled")
	assert.Contains(t, out, "still works")
	assert.NoError(t, logger.Close())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".kingraph"), expandPath("~/.kingraph"))
	assert.Equal(t, "/var/log/kingraph", expandPath("/var/log/kingraph"))
	assert.True(t, strings.HasPrefix(expandPath("~"), home))
}
