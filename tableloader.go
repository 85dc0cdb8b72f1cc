// Copyright (C) 2024  wwhai
//
// This program is free software; you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; either version 2 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License along
// with this program; if not, see <https://www.gnu.org/licenses/>.

package ilc

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// TableNumeric is the set of column types LoadTable can parse - the
// numeric types the actuator/calibration tables this loader historically
// fed are built from.
type TableNumeric interface {
	float32 | float64 | int32 | int64 | uint32 | uint64
}

// LoadTable reads a CSV table from r, skips skipRows header/comment rows
// and skipColumns leading columns, then parses keepColumns columns per row
// as T. It is the generic recast of the original's per-type C++ template
// table loader, used historically to load actuator calibration tables.
func LoadTable[T TableNumeric](r io.Reader, skipRows, skipColumns, keepColumns int) ([][]T, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ilc: reading table: %w", err)
	}
	if skipRows > len(records) {
		return nil, fmt.Errorf("ilc: table has %d rows, cannot skip %d", len(records), skipRows)
	}
	records = records[skipRows:]

	out := make([][]T, 0, len(records))
	for i, record := range records {
		if skipColumns+keepColumns > len(record) {
			return nil, fmt.Errorf("ilc: row %d has %d columns, need at least %d", i+skipRows+1, len(record), skipColumns+keepColumns)
		}
		row := make([]T, keepColumns)
		for j := 0; j < keepColumns; j++ {
			v, err := parseTableValue[T](strings.TrimSpace(record[skipColumns+j]))
			if err != nil {
				return nil, fmt.Errorf("ilc: row %d column %d: %w", i+skipRows+1, skipColumns+j, err)
			}
			row[j] = v
		}
		out = append(out, row)
	}
	return out, nil
}

func parseTableValue[T TableNumeric](s string) (T, error) {
	var zero T
	switch any(zero).(type) {
	case float32:
		v, err := strconv.ParseFloat(s, 32)
		return T(v), err
	case float64:
		v, err := strconv.ParseFloat(s, 64)
		return T(v), err
	case int32:
		v, err := strconv.ParseInt(s, 10, 32)
		return T(v), err
	case int64:
		v, err := strconv.ParseInt(s, 10, 64)
		return T(v), err
	case uint32:
		v, err := strconv.ParseUint(s, 10, 32)
		return T(v), err
	case uint64:
		v, err := strconv.ParseUint(s, 10, 64)
		return T(v), err
	}
	return zero, nil
}
