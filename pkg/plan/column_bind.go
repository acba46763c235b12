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

package plan

import "sort"

// ColumnBind identifies a column by its producing operator's relation
// tag (table/operator index) and its position within that operator's
// output list: [0]=relationTag, [1]=columnPos.
type ColumnBind [2]uint64

func (cb ColumnBind) table() uint64 {
	return cb[0]
}

func (cb ColumnBind) column() uint64 {
	return cb[1]
}

type ColumnBindSet map[ColumnBind]struct{}

func (set ColumnBindSet) insert(binds ...ColumnBind) {
	for _, bind := range binds {
		set[bind] = struct{}{}
	}
}

func (set ColumnBindSet) empty() bool {
	return len(set) == 0
}

type ColumnBindMap map[ColumnBind]int

type ColumnBindCountMap map[ColumnBind]int

type ColumnBindPosMap map[ColumnBind]int

func (m ColumnBindPosMap) pos(bind ColumnBind) (bool, int) {
	p, has := m[bind]
	return has, p
}

func (m ColumnBindPosMap) sortByColumnBind() []ColumnBind {
	binds := make([]ColumnBind, 0, len(m))
	for bind := range m {
		binds = append(binds, bind)
	}
	sort.Slice(binds, func(i, j int) bool {
		if binds[i][0] != binds[j][0] {
			return binds[i][0] < binds[j][0]
		}
		return binds[i][1] < binds[j][1]
	})
	return binds
}
