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

package format

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/zilliztech/dnastore/common/werr"
)

const maxLineBytes = 16 * 1024 * 1024

// IsBaseLine reports whether line starts with a base and so carries a sequence.
func IsBaseLine(line string) bool {
	if line == "" {
		return false
	}
	switch line[0] {
	case 'A', 'C', 'G', 'T', 'a', 'c', 'g', 't':
		return true
	}
	return false
}

// RecordName labels the n-th record, counting from 1.
func RecordName(n int) string {
	return fmt.Sprintf(">seq_%d", n)
}

// WriteFile writes the header and one labeled record per sequence to path.
func WriteFile(path string, header string, sequences []string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return werr.ErrFileIO.WithCauseErr(errors.Wrapf(err, "create %s", path))
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = werr.ErrFileIO.WithCauseErr(errors.Wrapf(closeErr, "close %s", path))
		}
	}()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, header)
	for i, seq := range sequences {
		fmt.Fprintln(w, RecordName(i+1))
		fmt.Fprintln(w, seq)
	}
	if err := w.Flush(); err != nil {
		return werr.ErrFileIO.WithCauseErr(errors.Wrapf(err, "write %s", path))
	}
	return nil
}

// Reader reads an encoded file: the header first, the records on demand.
type Reader struct {
	path    string
	f       *os.File
	scanner *bufio.Scanner
	header  string
}

// Open reads the header line of path and leaves the records unread.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, werr.ErrFileIO.WithCauseErr(errors.Wrapf(err, "open %s", path))
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	r := &Reader{path: path, f: f, scanner: scanner}
	if !scanner.Scan() {
		err := scanner.Err()
		f.Close()
		if err != nil {
			return nil, werr.ErrFileIO.WithCauseErr(errors.Wrapf(err, "read %s", path))
		}
		return nil, werr.ErrDecoding.WithCauseErrMsg(fmt.Sprintf("%s is empty", path))
	}
	r.header = strings.TrimSpace(scanner.Text())
	if !strings.HasPrefix(r.header, ">") {
		f.Close()
		return nil, werr.ErrDecoding.WithCauseErrMsg(fmt.Sprintf("%s does not start with a header line", path))
	}
	return r, nil
}

func (r *Reader) Header() string {
	return r.header
}

// Sequences returns every remaining base line, upper cased, skipping labels
// and any other line that does not start with a base.
func (r *Reader) Sequences() ([]string, error) {
	var out []string
	for r.scanner.Scan() {
		line := strings.TrimSpace(r.scanner.Text())
		if !IsBaseLine(line) {
			continue
		}
		out = append(out, strings.ToUpper(line))
	}
	if err := r.scanner.Err(); err != nil {
		return nil, werr.ErrFileIO.WithCauseErr(errors.Wrapf(err, "read %s", r.path))
	}
	return out, nil
}

func (r *Reader) Close() error {
	return r.f.Close()
}

// ReadFile reads the header and every sequence of path.
func ReadFile(path string) (string, []string, error) {
	r, err := Open(path)
	if err != nil {
		return "", nil, err
	}
	defer r.Close()
	seqs, err := r.Sequences()
	if err != nil {
		return "", nil, err
	}
	return r.Header(), seqs, nil
}
