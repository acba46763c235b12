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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/windowcore/windowcore/pkg/util"
)

func maskFromBools(valid []bool) *util.Bitmap {
	bm := &util.Bitmap{}
	bm.Init(len(valid))
	for i, v := range valid {
		bm.Set(uint64(i), v)
	}
	return bm
}

func Test_findNextStart(t *testing.T) {
	type kase struct {
		valid []bool
		l, r  int
		n     int
		want  int
	}
	tests := []kase{
		{
			valid: []bool{true, false, false, true, false, true},
			l: 0, r: 6, n: 1,
			want: 0,
		},
		{
			valid: []bool{true, false, false, true, false, true},
			l: 1, r: 6, n: 1,
			want: 3,
		},
		{
			valid: []bool{true, false, false, true, false, true},
			l: 4, r: 6, n: 1,
			want: 5,
		},
		{
			valid: []bool{true, true, true, true},
			l: 0, r: 4, n: 3,
			want: 2,
		},
	}
	for _, tt := range tests {
		mask := maskFromBools(tt.valid)
		n := tt.n
		got := findNextStart(mask, tt.l, tt.r, &n)
		require.Equal(t, tt.want, got)
	}
}

func Test_findNextStart_nilMask(t *testing.T) {
	n := 2
	got := findNextStart(nil, 0, 10, &n)
	require.Equal(t, 1, got)
	require.Equal(t, 0, n)
}

func Test_findNextStart_exhausted(t *testing.T) {
	mask := maskFromBools([]bool{true, false, false, false, false, false})
	n := 1
	got := findNextStart(mask, 1, 6, &n)
	require.Equal(t, 6, got)
	require.Equal(t, 1, n)
}

func Test_findPrevStart(t *testing.T) {
	type kase struct {
		valid []bool
		l, r  int
		n     int
		want  int
	}
	tests := []kase{
		{
			valid: []bool{true, false, false, true, false, true},
			l: 0, r: 6, n: 1,
			want: 5,
		},
		{
			valid: []bool{true, false, false, true, false, true},
			l: 0, r: 5, n: 1,
			want: 3,
		},
		{
			valid: []bool{true, false, false, true, false, true},
			l: 0, r: 3, n: 1,
			want: 0,
		},
		{
			valid: []bool{true, false, false, true, false, true},
			l: 1, r: 3, n: 1,
			want: 1,
		},
	}
	for _, tt := range tests {
		mask := maskFromBools(tt.valid)
		n := tt.n
		got := findPrevStart(mask, tt.l, tt.r, &n)
		require.Equal(t, tt.want, got)
	}
}

func Test_findPrevStart_nilMask(t *testing.T) {
	n := 3
	got := findPrevStart(nil, 0, 10, &n)
	require.Equal(t, 7, got)
	require.Equal(t, 0, n)
}
