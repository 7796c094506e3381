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

package werr

import (
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

const (
	// Ok means no errors
	Ok = iota
	// UnknownError means unknown error happened
	UnknownError
	// InternalError means internal error
	InternalError
	// ConfigurationError means invalid codec parameters or configuration
	ConfigurationError
	// HeaderMismatchError means the header key set does not match the active scheme
	HeaderMismatchError
	// UncorrectableBlockError means one segment exceeded its parity budget
	UncorrectableBlockError
	// MissingSegmentError means a declared index never appeared in the input
	MissingSegmentError
	// DecodingError means a base outside the alphabet or a malformed header field
	DecodingError
	// FileIOError means reading or writing a pipeline boundary file failed
	FileIOError
	// PrimerDesignError means the primer designer could not produce a pair
	PrimerDesignError
	// RedundancyError means inter-segment erasure coding failed
	RedundancyError
)

var (
	ErrUnknownError  = newDnaError("unknown error", UnknownError)
	ErrInternalError = newDnaError("internal error", InternalError)

	// Run-level errors, fatal for the whole run
	ErrConfiguration  = newDnaError("invalid configuration", ConfigurationError)
	ErrHeaderMismatch = newDnaError("header does not match the selected scheme", HeaderMismatchError)
	ErrDecoding       = newDnaError("failed to decode sequence", DecodingError)
	ErrFileIO         = newDnaError("file io failed", FileIOError)
	ErrPrimerDesign   = newDnaError("failed to design primers", PrimerDesignError)

	// Segment-level errors, counted and recovered by the batch
	ErrUncorrectableBlock = newDnaError("segment parity budget exceeded", UncorrectableBlockError)
	ErrMissingSegment     = newDnaError("segment is missing", MissingSegmentError)
	ErrRedundancy         = newDnaError("failed to compute segment redundancy", RedundancyError)
)

// dnaError carries an error code so callers can tell fatal run errors from per-segment ones.
type dnaError struct {
	msg     string
	errCode int32
	cause   error
}

func newDnaError(msg string, code int32) dnaError {
	return dnaError{
		msg:     msg,
		errCode: code,
	}
}

func (e dnaError) Code() int32 {
	return e.errCode
}

func (e dnaError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e dnaError) Unwrap() error {
	return e.cause
}

func (e dnaError) Is(err error) bool {
	if target, ok := err.(dnaError); ok {
		return e.errCode == target.errCode
	}
	return false
}

func (e dnaError) WithCauseErr(cause error) error {
	return dnaError{
		msg:     e.msg,
		errCode: e.errCode,
		cause:   cause,
	}
}

func (e dnaError) WithCauseErrMsg(msg string) error {
	return e.WithCauseErr(errors.New(msg))
}

type multiErrors struct {
	errs []error
}

func (e *multiErrors) Unwrap() error {
	if len(e.errs) <= 1 {
		return nil
	}
	if len(e.errs) == 2 {
		return e.errs[1]
	}

	return &multiErrors{
		errs: e.errs[1:],
	}
}

func (e *multiErrors) Error() string {
	final := e.errs[0]
	for i := 1; i < len(e.errs); i++ {
		final = errors.Wrap(e.errs[i], final.Error())
	}
	return final.Error()
}

func (e *multiErrors) Is(err error) bool {
	for _, item := range e.errs {
		if errors.Is(item, err) {
			return true
		}
	}
	return false
}

func Combine(errs ...error) error {
	errs = lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	if len(errs) == 0 {
		return nil
	}
	return &multiErrors{
		errs,
	}
}
