// Copyright 2024 The unix74 Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package boot

import "embed"

//go:embed fixtures/etc/passwd fixtures/etc/group fixtures/usr/liz/note.txt fixtures/usr/murtaugh/*.txt
var fixtures embed.FS

func readFixture(path string) []byte {
	data, err := fixtures.ReadFile("fixtures/" + path)
	if err != nil {
		panic("boot: missing embedded fixture " + path + ": " + err.Error())
	}
	return data
}
