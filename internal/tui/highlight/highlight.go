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

// Package highlight provides ANSI syntax highlighting for inspector payloads.
package highlight

import (
	"bytes"

	"github.com/alecthomas/chroma/v2/quick"
)

const (
	formatter = "terminal256"
	theme     = "monokai"
)

// JSON returns src highlighted as JSON for a 256-color terminal. On any
// highlighting failure the source is returned unchanged.
func JSON(src string) string {
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, src, "json", formatter, theme); err != nil {
		return src
	}
	return buf.String()
}

// Code highlights src using the lexer registered for language, falling back
// to the plain source when the language is unknown.
func Code(src, language string) string {
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, src, language, formatter, theme); err != nil {
		return src
	}
	return buf.String()
}
