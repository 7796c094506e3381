// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zilliztech/dnastore/common/werr"
)

// resetFlags undoes what earlier executions parsed into the shared command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	err := execute(args)
	return out.String(), err
}

func TestEncodeDecodeCommands(t *testing.T) {
	dir := t.TempDir()
	data := make([]byte, 700)
	rand.New(rand.NewSource(3)).Read(data)
	input := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(input, data, 0o644))

	out, err := run(t, "encode", "-i", input, "-o", dir, "-s", "wukong", "--sequence-length", "150", "--rs-num", "2", "--rule-num", "3")
	require.NoError(t, err)
	encoded := filepath.Join(dir, "photo_wukong.fasta")
	assert.Contains(t, out, encoded)
	assert.FileExists(t, encoded)

	out, err = run(t, "decode", "-i", encoded, "-o", dir, "-s", "wukong", "--rule-num", "3", "--report")
	require.NoError(t, err)
	assert.Contains(t, out, "rs_err_rate")
	assert.Contains(t, out, "photo_wukong_decode.report.json")

	restored, err := os.ReadFile(filepath.Join(dir, "photo_wukong_decode.jpg"))
	require.NoError(t, err)
	assert.Equal(t, data, restored)
}

func TestConfigFileAndMetricsTextfile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(input, []byte("a short note for the config test"), 0o644))
	textfile := filepath.Join(dir, "dnastore.prom")
	configFile := filepath.Join(dir, "dnastore.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(strings.Join([]string{
		"codec:",
		"  sequenceLength: 120",
		"  rsNum: 0",
		"  addRedundancy: false",
		"metrics:",
		"  enabled: true",
		"  textfile: " + textfile,
	}, "\n")), 0o644))

	_, err := run(t, "encode", "-c", configFile, "-i", input, "-o", dir, "-s", "church")
	require.NoError(t, err)
	content, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "dnastore_encode_runs_total")
}

func TestCommandErrorsMapToExitCodes(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(input, []byte("goldman goes first"), 0o644))

	_, err := run(t, "encode", "-i", input, "-o", dir, "-s", "goldman")
	require.NoError(t, err)

	_, err = run(t, "decode", "-i", filepath.Join(dir, "doc_goldman.fasta"), "-o", dir, "-s", "church")
	assert.ErrorIs(t, err, werr.ErrHeaderMismatch)
	assert.Equal(t, 3, werr.ExitCode(err))

	_, err = run(t, "encode", "-i", input, "-o", filepath.Join(dir, "nowhere"), "-s", "church")
	assert.Equal(t, 2, werr.ExitCode(err))
}

func TestRulesCommand(t *testing.T) {
	out, err := run(t, "rules", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "rule 12")
	assert.Contains(t, out, "0000")
	assert.Contains(t, out, "1111")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 18)

	_, err = run(t, "rules", "abc")
	assert.Equal(t, 2, werr.ExitCode(err))
	_, err = run(t, "rules", "30001")
	assert.ErrorIs(t, err, werr.ErrConfiguration)
}
