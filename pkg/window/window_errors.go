// Copyright 2023-2024 daviszhen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package window

import "fmt"

type windowErrorKind int

const (
	WindowErrOutOfRange windowErrorKind = iota
	WindowErrInvalidInput
	WindowErrInternal
)

type windowError struct {
	kind windowErrorKind
	msg  string
}

func (e *windowError) Error() string {
	return e.msg
}

func (e *windowError) Kind() windowErrorKind {
	return e.kind
}

func windowOutOfRangeError(format string, a ...any) error {
	return &windowError{kind: WindowErrOutOfRange, msg: fmt.Sprintf(format, a...)}
}

func windowInvalidInputError(format string, a ...any) error {
	return &windowError{kind: WindowErrInvalidInput, msg: fmt.Sprintf(format, a...)}
}

func windowInternalError(format string, a ...any) error {
	return &windowError{kind: WindowErrInternal, msg: fmt.Sprintf(format, a...)}
}
