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
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// MaxLineSizeBytes is the longest single record the reader accepts.
const MaxLineSizeBytes = 16 * 1024 * 1024

// Record is one decoded line. Raw holds the original bytes of the line.
type Record struct {
	Fields map[string]any
	Raw    json.RawMessage
}

// Reader reads records from a JSON lines stream in batches.
type Reader struct {
	scanner   *bufio.Scanner
	lineIndex int
	closed    bool
	totalRows int64
	closer    io.Closer
	batchSize int
}

// NewReader creates a new Reader for the given io.ReadCloser.
// The reader takes ownership of the closer and will close it when Close is called.
func NewReader(reader io.ReadCloser, batchSize int) *Reader {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSizeBytes)

	if batchSize <= 0 {
		batchSize = 1000
	}

	return &Reader{
		scanner:   scanner,
		closer:    reader,
		batchSize: batchSize,
	}
}

// Next returns up to batchSize records. It returns io.EOF once the stream
// is exhausted and no records remain.
func (r *Reader) Next() ([]Record, error) {
	if r.closed {
		return nil, io.EOF
	}

	batch := make([]Record, 0, r.batchSize)
	for len(batch) < r.batchSize {
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return nil, fmt.Errorf("scanner error reading at line %d: %w", r.lineIndex+1, err)
			}
			break
		}
		r.lineIndex++

		line := bytes.TrimSpace(r.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var fields map[string]any
		if err := json.Unmarshal(line, &fields); err != nil {
			return nil, fmt.Errorf("JSON parse error at line %d: %w", r.lineIndex, err)
		}
		raw := make(json.RawMessage, len(line))
		copy(raw, line)
		batch = append(batch, Record{Fields: fields, Raw: raw})
	}

	if len(batch) == 0 {
		r.closed = true
		return nil, io.EOF
	}

	r.totalRows += int64(len(batch))
	return batch, nil
}

// Close closes the reader and the underlying io.ReadCloser.
func (r *Reader) Close() error {
	if r.closed && r.closer == nil {
		return nil
	}
	r.closed = true

	var err error
	if r.closer != nil {
		err = r.closer.Close()
		r.closer = nil
	}
	r.scanner = nil
	return err
}

// TotalRowsReturned returns the total number of records returned via Next().
func (r *Reader) TotalRowsReturned() int64 {
	return r.totalRows
}
