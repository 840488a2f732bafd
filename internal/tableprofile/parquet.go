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

package tableprofile

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"unicode/utf8"

	"github.com/parquet-go/parquet-go"

	"github.com/cardinalhq/colmeta/internal/datavalue"
)

// Table is the content of a file split into partitions.
type Table struct {
	Columns    []Column
	Partitions []Partition
	// Skipped lists the columns whose parquet type has no value type.
	Skipped []string
}

// Rows returns the total number of rows.
func (t *Table) Rows() int {
	n := 0
	for _, p := range t.Partitions {
		n += len(p)
	}
	return n
}

type cellConverter func(any) (any, error)

type parquetColumn struct {
	Column
	convert cellConverter
}

// ReadParquet reads a parquet file into partitions of cfg.PartitionRows
// rows. Top-level columns are mapped to value types: UTF-8 and plain byte
// arrays to strings, signed integers to longs, UINT_64 and floating point
// to doubles, booleans to bools, and string lists to nominal
// distributions. Byte values that are not valid UTF-8 become "0x" hex
// labels.
func ReadParquet(ctx context.Context, path string, cfg Config) (*Table, error) {
	cfg = cfg.normalized()

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file %s: %w", path, err)
	}

	pf, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	table := &Table{}
	var cols []parquetColumn
	for _, field := range pf.Schema().Fields() {
		col, ok := columnFromNode(field.Name(), field)
		if !ok {
			table.Skipped = append(table.Skipped, field.Name())
			continue
		}
		cols = append(cols, col)
		table.Columns = append(table.Columns, col.Column)
	}

	reader := parquet.NewGenericReader[map[string]any](pf, pf.Schema())
	defer func() { _ = reader.Close() }()

	current := make(Partition, 0, cfg.PartitionRows)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows := make([]map[string]any, cfg.BatchSize)
		for i := range rows {
			rows[i] = make(map[string]any, len(cols))
		}
		n, err := reader.Read(rows)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("error reading parquet rows: %w", err)
		}

		for _, row := range rows[:n] {
			cells := make([]any, len(cols))
			for i, col := range cols {
				cell, cerr := col.convert(row[col.Name])
				if cerr != nil {
					return nil, fmt.Errorf("column %q: %w", col.Name, cerr)
				}
				cells[i] = cell
			}
			current = append(current, cells)
			if len(current) == cfg.PartitionRows {
				table.Partitions = append(table.Partitions, current)
				current = make(Partition, 0, cfg.PartitionRows)
			}
		}

		if n == 0 || errors.Is(err, io.EOF) {
			break
		}
	}
	if len(current) > 0 {
		table.Partitions = append(table.Partitions, current)
	}
	return table, nil
}

func columnFromNode(name string, node parquet.Node) (parquetColumn, bool) {
	if !node.Leaf() {
		if isStringList(node) {
			return parquetColumn{Column{name, datavalue.NominalDistributionType}, convertLabels}, true
		}
		return parquetColumn{}, false
	}
	if node.Repeated() {
		if isStringLeaf(node.Type()) {
			return parquetColumn{Column{name, datavalue.NominalDistributionType}, convertLabels}, true
		}
		return parquetColumn{}, false
	}

	ptype := node.Type()
	if isStringLeaf(ptype) {
		return parquetColumn{Column{name, datavalue.StringType}, convertString}, true
	}
	switch ptype.Kind() {
	case parquet.Boolean:
		return parquetColumn{Column{name, datavalue.BooleanType}, convertBool}, true
	case parquet.Int64:
		if isUnsigned64(ptype) {
			return parquetColumn{Column{name, datavalue.DoubleType}, convertUnsigned}, true
		}
		return parquetColumn{Column{name, datavalue.LongType}, convertLong}, true
	case parquet.Int32:
		return parquetColumn{Column{name, datavalue.LongType}, convertLong}, true
	case parquet.Float, parquet.Double:
		return parquetColumn{Column{name, datavalue.DoubleType}, convertDouble}, true
	default:
		return parquetColumn{}, false
	}
}

func isStringLeaf(ptype parquet.Type) bool {
	if lt := ptype.LogicalType(); lt != nil && lt.UTF8 != nil {
		return true
	}
	return ptype.Kind() == parquet.ByteArray
}

// isUnsigned64 reports a UINT_64 column, whose values do not all fit a long.
func isUnsigned64(ptype parquet.Type) bool {
	lt := ptype.LogicalType()
	return lt != nil && lt.Integer != nil && !lt.Integer.IsSigned && lt.Integer.BitWidth == 64
}

// labelText returns s unchanged when it is valid UTF-8 and otherwise its
// hex form prefixed with "0x". Labels are persisted as text.
func labelText(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return "0x" + hex.EncodeToString([]byte(s))
}

// isStringList recognizes the three-level LIST layout whose elements are
// strings.
func isStringList(node parquet.Node) bool {
	if lt := node.Type().LogicalType(); lt == nil || lt.List == nil {
		return false
	}
	fields := node.Fields()
	if len(fields) != 1 || fields[0].Leaf() || !fields[0].Repeated() {
		return false
	}
	elems := fields[0].Fields()
	return len(elems) == 1 && elems[0].Leaf() && isStringLeaf(elems[0].Type())
}

func convertString(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return datavalue.Missing{}, nil
	case string:
		return datavalue.String(labelText(x)), nil
	case []byte:
		return datavalue.String(labelText(string(x))), nil
	}
	return nil, fmt.Errorf("unexpected %T for a string column", v)
}

func convertBool(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return datavalue.Missing{}, nil
	case bool:
		return datavalue.Bool(x), nil
	}
	return nil, fmt.Errorf("unexpected %T for a boolean column", v)
}

func convertLong(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return datavalue.Missing{}, nil
	case int:
		return datavalue.Long(x), nil
	case int8:
		return datavalue.Long(x), nil
	case int16:
		return datavalue.Long(x), nil
	case int32:
		return datavalue.Long(x), nil
	case int64:
		return datavalue.Long(x), nil
	case uint8:
		return datavalue.Long(x), nil
	case uint16:
		return datavalue.Long(x), nil
	case uint32:
		return datavalue.Long(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return nil, fmt.Errorf("value %d overflows a long", x)
		}
		return datavalue.Long(int64(x)), nil
	}
	return nil, fmt.Errorf("unexpected %T for an integer column", v)
}

// convertUnsigned reads UINT_64 cells, which parquet stores as int64 bit
// patterns, as doubles.
func convertUnsigned(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return datavalue.Missing{}, nil
	case uint64:
		return datavalue.Double(float64(x)), nil
	case int64:
		return datavalue.Double(float64(uint64(x))), nil
	}
	return nil, fmt.Errorf("unexpected %T for an unsigned integer column", v)
}

func convertDouble(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return datavalue.Missing{}, nil
	case float32:
		return datavalue.Double(x), nil
	case float64:
		return datavalue.Double(x), nil
	}
	return nil, fmt.Errorf("unexpected %T for a floating point column", v)
}

// convertLabels accepts both the flat form of a list ([]any or []string)
// and the nested {"list": [{"element": v}]} form.
func convertLabels(v any) (any, error) {
	labels, err := listLabels(v)
	if err != nil {
		return nil, err
	}
	if labels == nil {
		return datavalue.Missing{}, nil
	}
	return datavalue.Uniform(labels...), nil
}

func listLabels(v any) ([]string, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []string:
		labels := make([]string, len(x))
		for i, l := range x {
			labels[i] = labelText(l)
		}
		return labels, nil
	case map[string]any:
		return listLabels(x["list"])
	case []any:
		labels := make([]string, 0, len(x))
		for _, item := range x {
			if m, ok := item.(map[string]any); ok {
				item = m["element"]
			}
			switch s := item.(type) {
			case nil:
			case string:
				labels = append(labels, labelText(s))
			case []byte:
				labels = append(labels, labelText(string(s)))
			default:
				return nil, fmt.Errorf("unexpected %T in a string list", item)
			}
		}
		return labels, nil
	}
	return nil, fmt.Errorf("unexpected %T for a string list column", v)
}
