// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"bytes"
	"sort"
	"strings"
	"testing"
)

func TestGenerateCmdOutput(t *testing.T) {
	var stdout bytes.Buffer

	generateCmdOutput(&stdout)

	expectOutputKeys(t, stdout.String(), []string{
		"Version",
		"Build Commit",
		"Build Timestamp",
		"Build Hostname",
		"Go Version",
		"Platform",
	})
}

func TestRootCommandSubcommands(t *testing.T) {
	var names []string
	for _, c := range RootCommand.Commands() {
		names = append(names, c.Name())
	}
	sort.Strings(names)
	if got := strings.Join(names, ","); got != "inspect,spans,version" {
		t.Fatalf("unexpected subcommands: %v", got)
	}
}

func expectOutputKeys(t *testing.T, stdout string, expectedKeys []string) {
	t.Helper()

	lines := strings.Split(strings.Trim(stdout, "\n"), "\n")
	gotKeys := make([]string, 0, len(lines))

	for _, line := range lines {
		gotKeys = append(gotKeys, strings.Split(line, ":")[0])
	}

	sort.Strings(expectedKeys)
	sort.Strings(gotKeys)

	if len(expectedKeys) != len(gotKeys) {
		t.Fatalf("expected %v but got %v", expectedKeys, gotKeys)
	}

	for i, got := range gotKeys {
		if expectedKeys[i] != got {
			t.Fatalf("expected %v but got %v", expectedKeys, gotKeys)
		}
	}
}
