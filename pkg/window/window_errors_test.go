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

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_windowErrors_kindsAndMessages(t *testing.T) {
	oor := windowOutOfRangeError("row %d out of range", 5)
	var werr *windowError
	require.True(t, errors.As(oor, &werr))
	require.Equal(t, WindowErrOutOfRange, werr.Kind())
	require.Equal(t, "row 5 out of range", werr.Error())

	inv := windowInvalidInputError("bad frame %s", "spec")
	require.True(t, errors.As(inv, &werr))
	require.Equal(t, WindowErrInvalidInput, werr.Kind())
	require.Equal(t, "bad frame spec", werr.Error())

	internal := windowInternalError("merge failed: %v", errors.New("boom"))
	require.True(t, errors.As(internal, &werr))
	require.Equal(t, WindowErrInternal, werr.Kind())
	require.Equal(t, "merge failed: boom", internal.Error())
}
