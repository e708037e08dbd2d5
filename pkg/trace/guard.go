// Copyright 2026 Loupe Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package trace

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// MaxInlineResult is the longest string result embedded verbatim in a span.
// Longer results are replaced with a type/size tag so payloads stay bounded.
const MaxInlineResult = 1000

// Guard returns v if it can be represented as JSON, or a placeholder string
// naming v's type otherwise. It never panics, even when a custom marshaler
// does.
func Guard(v any) (out any) {
	defer func() {
		if recover() != nil {
			out = placeholder(v)
		}
	}()
	if v == nil {
		return nil
	}
	if _, err := json.Marshal(v); err != nil {
		return placeholder(v)
	}
	return v
}

// GuardResult applies Guard and additionally caps string results: anything
// longer than MaxInlineResult runes becomes a type/size tag.
func GuardResult(v any) any {
	if s, ok := v.(string); ok {
		if n := utf8.RuneCountInString(s); n > MaxInlineResult {
			return fmt.Sprintf("<string: %d chars>", n)
		}
		return s
	}
	return Guard(v)
}

// GuardMap guards every value of m independently, so one unserializable
// input does not mask the others. Returns nil for an empty map.
func GuardMap(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Guard(v)
	}
	return out
}

func placeholder(v any) string {
	return fmt.Sprintf("<%T object>", v)
}
