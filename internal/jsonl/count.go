// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package jsonl

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
)

// CountLines counts lines in r. A final line without a trailing newline
// still counts as a line.
func CountLines(r io.Reader) (int64, error) {
	buf := make([]byte, 32*1024)
	var count int64
	var last byte = '\n'

	for {
		n, err := r.Read(buf)
		if n > 0 {
			count += int64(bytes.Count(buf[:n], []byte{'\n'}))
			last = buf[n-1]
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
	}

	if last != '\n' {
		count++
	}
	return count, nil
}

// CountFileLines counts the lines of the file at path.
func CountFileLines(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()
	return CountLines(f)
}

// Lookup walks a dotted path ("a.b.c") through nested objects.
func Lookup(fields map[string]any, path string) (any, bool) {
	var cur any = fields
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// LookupFloat returns the number at path. Numeric strings are not coerced.
func LookupFloat(fields map[string]any, path string) (float64, bool) {
	v, ok := Lookup(fields, path)
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// LookupString returns the string at path.
func LookupString(fields map[string]any, path string) (string, bool) {
	v, ok := Lookup(fields, path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
