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
)

// Code returns the code of the first coded error in the chain.
func Code(err error) int32 {
	if err == nil {
		return Ok
	}
	var dErr dnaError
	if errors.As(err, &dErr) {
		return dErr.Code()
	}
	return UnknownError
}

// IsFatal reports whether err must abort a codec run.
func IsFatal(err error) bool {
	switch Code(err) {
	case Ok, UncorrectableBlockError, MissingSegmentError:
		return false
	default:
		return true
	}
}

// ExitCode maps an error onto a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch Code(err) {
	case ConfigurationError:
		return 2
	case HeaderMismatchError:
		return 3
	case DecodingError:
		return 4
	case FileIOError:
		return 5
	default:
		return 1
	}
}
