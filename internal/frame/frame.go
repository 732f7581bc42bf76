// Package frame holds the column-oriented tables the feature pipeline works on.
package frame

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var (
	ErrColumnNotFound = errors.New("column not found")

	ErrLengthMismatch = errors.New("column length does not match frame length")

	ErrDuplicateKey = errors.New("duplicate key value")
)

type Kind int

const (
	String Kind = iota
	Float
	Int
	Bool
	Date
	Category
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case Int:
		return "int"
	case Bool:
		return "bool"
	case Date:
		return "date"
	case Category:
		return "category"
	default:
		return "string"
	}
}

// Numeric reports whether the kind takes part in numeric aggregations.
func (k Kind) Numeric() bool {
	return k == Float || k == Int
}

// Column values are nil, string, float64, int64, bool or time.Time depending on Kind.
// Category columns store string labels and keep the ordered label set in Levels.
type Column struct {
	Name   string
	Kind   Kind
	Values []any
	Levels []string
}

func NewColumn(name string, kind Kind, values []any) *Column {
	return &Column{Name: name, Kind: kind, Values: values}
}

type Frame struct {
	columns []*Column
	pos     map[string]int
	rows    int
}

func New() *Frame {
	return &Frame{pos: make(map[string]int)}
}

func (f *Frame) Len() int { return f.rows }

func (f *Frame) Width() int { return len(f.columns) }

func (f *Frame) Names() []string {
	names := make([]string, len(f.columns))
	for i, c := range f.columns {
		names[i] = c.Name
	}
	return names
}

func (f *Frame) Has(name string) bool {
	_, ok := f.pos[name]
	return ok
}

func (f *Frame) Column(name string) (*Column, error) {
	i, ok := f.pos[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return f.columns[i], nil
}

// Columns returns the columns in frame order. The slice is shared with the frame.
func (f *Frame) Columns() []*Column {
	return f.columns
}

// Set appends the column, or replaces an existing column with the same name in place.
// The first column added to an empty frame fixes the row count.
func (f *Frame) Set(c *Column) error {
	if len(f.columns) == 0 {
		f.rows = len(c.Values)
	} else if len(c.Values) != f.rows {
		return fmt.Errorf("%w: %q has %d values, frame has %d rows", ErrLengthMismatch, c.Name, len(c.Values), f.rows)
	}
	if i, ok := f.pos[c.Name]; ok {
		f.columns[i] = c
		return nil
	}
	f.pos[c.Name] = len(f.columns)
	f.columns = append(f.columns, c)
	return nil
}

// Drop removes every named column or none of them.
func (f *Frame) Drop(names ...string) error {
	var missing []string
	for _, n := range names {
		if !f.Has(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %q", ErrColumnNotFound, missing)
	}
	f.DropIfExists(names...)
	return nil
}

func (f *Frame) DropIfExists(names ...string) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := f.columns[:0]
	for _, c := range f.columns {
		if !drop[c.Name] {
			kept = append(kept, c)
		}
	}
	f.columns = kept
	f.reindex()
}

func (f *Frame) reindex() {
	f.pos = make(map[string]int, len(f.columns))
	for i, c := range f.columns {
		f.pos[c.Name] = i
	}
	if len(f.columns) == 0 {
		f.rows = 0
	}
}

func (f *Frame) Value(row int, name string) any {
	i, ok := f.pos[name]
	if !ok || row < 0 || row >= f.rows {
		return nil
	}
	return f.columns[i].Values[row]
}

// Take builds a new frame from the given rows, in the given order.
func (f *Frame) Take(rows []int) *Frame {
	out := New()
	out.rows = len(rows)
	for _, c := range f.columns {
		values := make([]any, len(rows))
		for j, r := range rows {
			values[j] = c.Values[r]
		}
		nc := &Column{Name: c.Name, Kind: c.Kind, Values: values}
		if c.Levels != nil {
			nc.Levels = append([]string(nil), c.Levels...)
		}
		out.pos[c.Name] = len(out.columns)
		out.columns = append(out.columns, nc)
	}
	return out
}

// KeyIndex maps the canonical key string of every value in the column to its row.
func (f *Frame) KeyIndex(name string) (map[string]int, error) {
	c, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]int, f.rows)
	for i, v := range c.Values {
		k := KeyOf(v)
		if _, dup := idx[k]; dup {
			return nil, fmt.Errorf("%w: %q in column %q", ErrDuplicateKey, k, name)
		}
		idx[k] = i
	}
	return idx, nil
}

// Records returns JSON-friendly rows: dates use DateLayout and non-finite floats become nil.
func (f *Frame) Records() []map[string]any {
	out := make([]map[string]any, f.rows)
	for i := 0; i < f.rows; i++ {
		rec := make(map[string]any, len(f.columns))
		for _, c := range f.columns {
			rec[c.Name] = jsonValue(c.Values[i])
		}
		out[i] = rec
	}
	return out
}

// MarshalJSON encodes the frame as an array of records keeping column order.
func (f *Frame) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i := 0; i < f.rows; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, c := range f.columns {
			if j > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(c.Name)
			if err != nil {
				return nil, err
			}
			val, err := json.Marshal(jsonValue(c.Values[i]))
			if err != nil {
				return nil, fmt.Errorf("encoding %q row %d: %w", c.Name, i, err)
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// Grid renders the frame as strings, optionally preceded by a header row.
func (f *Frame) Grid(header bool) [][]string {
	grid := make([][]string, 0, f.rows+1)
	if header {
		grid = append(grid, f.Names())
	}
	for i := 0; i < f.rows; i++ {
		row := make([]string, len(f.columns))
		for j, c := range f.columns {
			row[j] = Format(c.Values[i])
		}
		grid = append(grid, row)
	}
	return grid
}

// AsStrings converts every column to the String kind.
func (f *Frame) AsStrings() {
	for _, c := range f.columns {
		for i, v := range c.Values {
			if v == nil {
				c.Values[i] = ""
				continue
			}
			c.Values[i] = Format(v)
		}
		c.Kind = String
		c.Levels = nil
	}
}

// FromRecords builds a frame from row maps. Columns named in order come first, the
// rest follow alphabetically. Missing fields are nil and kinds are inferred per column.
func FromRecords(records []map[string]any, order []string) *Frame {
	seen := make(map[string]bool)
	var names []string
	for _, n := range order {
		for _, r := range records {
			if _, ok := r[n]; ok {
				if !seen[n] {
					seen[n] = true
					names = append(names, n)
				}
				break
			}
		}
	}
	var rest []string
	for _, r := range records {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				rest = append(rest, k)
			}
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)

	f := New()
	f.rows = len(records)
	for _, n := range names {
		values := make([]any, len(records))
		for i, r := range records {
			values[i] = Normalize(r[n])
		}
		kind := InferKind(values)
		c := &Column{Name: n, Kind: kind, Values: coerceTo(kind, values)}
		f.pos[n] = len(f.columns)
		f.columns = append(f.columns, c)
	}
	return f
}

func jsonValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.Format(DateLayout)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	default:
		return v
	}
}
