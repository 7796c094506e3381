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

package primer

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zilliztech/dnastore/codec/format"
	"github.com/zilliztech/dnastore/common/config"
	"github.com/zilliztech/dnastore/common/werr"
)

var defaultConstraints = Constraints{Length: 20, MinGC: 0.4, MaxGC: 0.6, MaxHomopolymer: 4}

func TestReverseComplement(t *testing.T) {
	assert.Equal(t, "", ReverseComplement(""))
	assert.Equal(t, "ACGT", ReverseComplement("ACGT"))
	assert.Equal(t, "TGGAAGTTGCCAGCTCACTG", ReverseComplement("CAGTGAGCTGGCAACTTCCA"))
	assert.Equal(t, "NAT", ReverseComplement("ATX"))
	assert.Equal(t, "cgt", ReverseComplement("acg"))
}

func TestFlankAndStrip(t *testing.T) {
	p := Pair{Left: "AAAC", Right: "GGGT"}
	flanked := Flank("TTTT", p)
	assert.Equal(t, "AAACTTTTACCC", flanked)
	assert.Equal(t, "TTTT", Strip(flanked, len(p.Left), len(p.Right)))
	assert.Equal(t, "", Strip("ACG", 2, 2))
	assert.Equal(t, "CG", Strip("ACG", 1, 0))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("CGACATCTCGATGGCAGCAT", defaultConstraints))
	assert.ErrorIs(t, Validate("CGACATCTCG", defaultConstraints), werr.ErrPrimerDesign)
	assert.ErrorIs(t, Validate("CGACATCTCGATGGCAGCAN", defaultConstraints), werr.ErrPrimerDesign)
	assert.ErrorIs(t, Validate("CGACAAAAAGATGGCAGCAT", defaultConstraints), werr.ErrPrimerDesign)
}

func TestStaticDesigner(t *testing.T) {
	ctx := context.Background()
	d := NewStaticDesigner("cgacatctcgatggcagcat", "CAGTGAGCTGGCAACTTCCA")
	pair, err := d.Design(ctx, "", defaultConstraints)
	require.NoError(t, err)
	assert.Equal(t, &Pair{Left: "CGACATCTCGATGGCAGCAT", Right: "CAGTGAGCTGGCAACTTCCA"}, pair)

	pair, err = NewStaticDesigner("", "").Design(ctx, "", defaultConstraints)
	assert.NoError(t, err)
	assert.Nil(t, pair)

	_, err = d.Design(ctx, "", Constraints{Length: 22})
	assert.ErrorIs(t, err, werr.ErrPrimerDesign)
}

func TestNewDesigner(t *testing.T) {
	cfg, err := config.NewConfiguration()
	require.NoError(t, err)

	d, err := NewDesigner(&cfg.Primer)
	require.NoError(t, err)
	assert.IsType(t, &StaticDesigner{}, d)

	cfg.Primer.Designer = DesignerPrimer3
	d, err = NewDesigner(&cfg.Primer)
	require.NoError(t, err)
	assert.IsType(t, &Primer3Designer{}, d)

	cfg.Primer.Designer = "blast"
	_, err = NewDesigner(&cfg.Primer)
	assert.ErrorIs(t, err, werr.ErrConfiguration)
}

func TestParseOutput(t *testing.T) {
	raw := "SEQUENCE_ID=dnastore\nPRIMER_PAIR_NUM_RETURNED=1\nPRIMER_LEFT_0_SEQUENCE=cgacatctcgatggcagcat\nPRIMER_RIGHT_0_SEQUENCE=CAGTGAGCTGGCAACTTCCA\n=\n"
	pair, err := parseOutput([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, &Pair{Left: "CGACATCTCGATGGCAGCAT", Right: "CAGTGAGCTGGCAACTTCCA"}, pair)

	pair, err = parseOutput([]byte("PRIMER_PAIR_NUM_RETURNED=0\n=\n"))
	assert.NoError(t, err)
	assert.Nil(t, pair)

	_, err = parseOutput([]byte("PRIMER_ERROR=missing SEQUENCE tag\n=\n"))
	assert.ErrorIs(t, err, werr.ErrPrimerDesign)
}

func TestSettings(t *testing.T) {
	p := NewPrimer3Designer("", "/opt/primer3_config/", time.Second)
	assert.Equal(t, "primer3_core", p.path)

	settings := string(p.settings("ACGTACGT", defaultConstraints))
	assert.Contains(t, settings, "SEQUENCE_TEMPLATE=ACGTACGT\n")
	assert.Contains(t, settings, "PRIMER_OPT_SIZE=20\n")
	assert.Contains(t, settings, "PRIMER_MIN_GC=40.0\n")
	assert.Contains(t, settings, "PRIMER_MAX_POLY_X=4\n")
	assert.Contains(t, settings, "PRIMER_THERMODYNAMIC_PARAMETERS_PATH=/opt/primer3_config/\n")
	assert.True(t, strings.HasSuffix(settings, "\n=\n"))
}

func writeEncoded(t *testing.T, dir string) string {
	path := filepath.Join(dir, "in_church.fasta")
	require.NoError(t, format.WriteFile(path, ">indexLen:1,addLen:0,fileExtension:.txt", []string{
		strings.Repeat("ACGT", 30), strings.Repeat("TGCA", 30),
	}))
	return path
}

func TestPrimer3DesignerWithFakeExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script executable")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "primer3_core")
	body := "#!/bin/sh\n" +
		"grep -q '^SEQUENCE_TEMPLATE=ACGT' \"$1\" || exit 3\n" +
		"printf 'PRIMER_PAIR_NUM_RETURNED=1\\nPRIMER_LEFT_0_SEQUENCE=CGACATCTCGATGGCAGCAT\\nPRIMER_RIGHT_0_SEQUENCE=CAGTGAGCTGGCAACTTCCA\\n=\\n' > \"$3\"\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	d := NewPrimer3Designer(script, "", 10*time.Second)
	pair, err := d.Design(context.Background(), writeEncoded(t, dir), defaultConstraints)
	require.NoError(t, err)
	assert.Equal(t, &Pair{Left: "CGACATCTCGATGGCAGCAT", Right: "CAGTGAGCTGGCAACTTCCA"}, pair)
}

func TestPrimer3DesignerMissingExecutable(t *testing.T) {
	dir := t.TempDir()
	d := NewPrimer3Designer(filepath.Join(dir, "no-such-primer3"), "", time.Second)
	_, err := d.Design(context.Background(), writeEncoded(t, dir), defaultConstraints)
	assert.ErrorIs(t, err, werr.ErrPrimerDesign)
}
