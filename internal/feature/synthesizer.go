package feature

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"time"

	"loan-feature-engine/internal/frame"
	"loan-feature-engine/internal/pkg/apperrors"
)

// DefaultMaxDepth lets a loan see its customer's aggregates over all of that customer's loans.
const DefaultMaxDepth = 2

const (
	PrimitiveIdentity  = "identity"
	PrimitiveDirect    = "direct"
	PrimitiveCount     = "COUNT"
	PrimitiveSum       = "SUM"
	PrimitiveMean      = "MEAN"
	PrimitiveMin       = "MIN"
	PrimitiveMax       = "MAX"
	PrimitiveStd       = "STD"
	PrimitiveNumUnique = "NUM_UNIQUE"
	PrimitiveMode      = "MODE"
	PrimitiveDay       = "DAY"
	PrimitiveMonth     = "MONTH"
	PrimitiveYear      = "YEAR"
	PrimitiveWeekday   = "WEEKDAY"
)

var numericAggregations = []string{PrimitiveSum, PrimitiveMean, PrimitiveMin, PrimitiveMax, PrimitiveStd}

var categoricalAggregations = []string{PrimitiveNumUnique, PrimitiveMode}

var dateTransforms = []string{PrimitiveDay, PrimitiveMonth, PrimitiveYear, PrimitiveWeekday}

// Relationship is a one-to-many link: each Child row points at one Parent row.
type Relationship struct {
	Parent    string
	ParentKey string
	Child     string
	ChildKey  string
}

// Definition describes how one output column was derived.
type Definition struct {
	Name      string   `json:"name"`
	Primitive string   `json:"primitive"`
	Base      []string `json:"base"`
	Table     string   `json:"table"`
	Depth     int      `json:"depth"`
}

type table struct {
	name  string
	key   string
	frame *frame.Frame
}

// EntitySet is the registry of tables and relationships that synthesis walks.
type EntitySet struct {
	tables        map[string]*table
	relationships []Relationship
	logger        *slog.Logger
}

func NewEntitySet(logger *slog.Logger) *EntitySet {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return &EntitySet{tables: make(map[string]*table), logger: logger.With("component", "EntitySet")}
}

// AddTable registers f under name. The key column must exist and be unique.
// Registering a name again replaces the previous table.
func (es *EntitySet) AddTable(name string, f *frame.Frame, key string) error {
	if name == "" || f == nil {
		return fmt.Errorf("%w: table name and frame are required", apperrors.ErrSynthesis)
	}
	if _, err := f.KeyIndex(key); err != nil {
		return fmt.Errorf("%w: table %q: %w", apperrors.ErrSynthesis, name, err)
	}
	es.tables[name] = &table{name: name, key: key, frame: f}
	return nil
}

func (es *EntitySet) AddRelationship(r Relationship) error {
	parent, ok := es.tables[r.Parent]
	if !ok {
		return fmt.Errorf("%w: parent table %q is not registered", apperrors.ErrSynthesis, r.Parent)
	}
	child, ok := es.tables[r.Child]
	if !ok {
		return fmt.Errorf("%w: child table %q is not registered", apperrors.ErrSynthesis, r.Child)
	}
	if r.ParentKey != parent.key {
		return fmt.Errorf("%w: %q is not the key of %q", apperrors.ErrSynthesis, r.ParentKey, r.Parent)
	}
	if !child.frame.Has(r.ChildKey) {
		return fmt.Errorf("%w: table %q has no column %q", apperrors.ErrSynthesis, r.Child, r.ChildKey)
	}
	for _, existing := range es.relationships {
		if existing == r {
			return nil
		}
	}
	es.relationships = append(es.relationships, r)
	return nil
}

// Synthesize builds the feature table for target, keyed by its primary key in the
// target's row order, and the definition of every column after the key.
func (es *EntitySet) Synthesize(ctx context.Context, target string, maxDepth int) (*frame.Frame, []Definition, error) {
	if _, ok := es.tables[target]; !ok {
		return nil, nil, fmt.Errorf("%w: target %q is not registered", apperrors.ErrSynthesis, target)
	}
	if len(es.relationships) == 0 {
		return nil, nil, fmt.Errorf("%w: no relationships declared", apperrors.ErrSynthesis)
	}
	if maxDepth < 0 {
		return nil, nil, fmt.Errorf("%w: max depth %d", apperrors.ErrSynthesis, maxDepth)
	}

	out, defs, err := es.build(ctx, target, maxDepth, "")
	if err != nil {
		return nil, nil, err
	}
	es.logger.InfoContext(ctx, "Synthesized features",
		slog.String("target", target),
		slog.Int("rows", out.Len()),
		slog.Int("features", len(defs)),
	)
	return out, defs, nil
}

// build returns the key column followed by the features of name. from is the table
// the walk arrived from; children are not given direct features back to it.
func (es *EntitySet) build(ctx context.Context, name string, depth int, from string) (*frame.Frame, []Definition, error) {
	t := es.tables[name]
	out := frame.New()
	keyCol, _ := t.frame.Column(t.key)
	if err := out.Set(cloneColumn(keyCol, t.key)); err != nil {
		return nil, nil, err
	}
	var defs []Definition
	add := func(c *frame.Column, d Definition) error {
		if out.Has(c.Name) {
			return nil
		}
		if err := out.Set(c); err != nil {
			return err
		}
		defs = append(defs, d)
		return nil
	}

	foreign := es.foreignKeys(name)
	for _, c := range t.frame.Columns() {
		if c.Name == t.key || foreign[c.Name] {
			continue
		}
		if err := add(cloneColumn(c, c.Name), Definition{Name: c.Name, Primitive: PrimitiveIdentity, Base: []string{c.Name}, Table: name}); err != nil {
			return nil, nil, err
		}
	}

	if from == "" {
		for _, c := range t.frame.Columns() {
			if c.Kind != frame.Date {
				continue
			}
			for _, p := range dateTransforms {
				col := transformDate(p, c)
				if err := add(col, Definition{Name: col.Name, Primitive: p, Base: []string{c.Name}, Table: name, Depth: 1}); err != nil {
					return nil, nil, err
				}
			}
		}
	}

	if depth == 0 {
		return out, defs, nil
	}

	for _, r := range es.relationships {
		if r.Parent != name {
			continue
		}
		childFeatures, childDefs, err := es.build(ctx, r.Child, depth-1, name)
		if err != nil {
			return nil, nil, err
		}
		cols, aggDefs, err := es.aggregate(ctx, t, r, childFeatures, childDefs)
		if err != nil {
			return nil, nil, err
		}
		for i, c := range cols {
			if err := add(c, aggDefs[i]); err != nil {
				return nil, nil, err
			}
		}
	}

	for _, r := range es.relationships {
		if r.Child != name || r.Parent == from {
			continue
		}
		parentFeatures, parentDefs, err := es.build(ctx, r.Parent, depth-1, name)
		if err != nil {
			return nil, nil, err
		}
		cols, directDefs, err := es.direct(ctx, t, r, parentFeatures, parentDefs)
		if err != nil {
			return nil, nil, err
		}
		for i, c := range cols {
			if err := add(c, directDefs[i]); err != nil {
				return nil, nil, err
			}
		}
	}
	return out, defs, nil
}

func (es *EntitySet) foreignKeys(name string) map[string]bool {
	keys := make(map[string]bool)
	for _, r := range es.relationships {
		if r.Child == name {
			keys[r.ChildKey] = true
		}
	}
	return keys
}

// aggregate groups the child's features by its foreign key and reduces each group
// onto the parent's rows. Parents without children get COUNT 0.
func (es *EntitySet) aggregate(ctx context.Context, parent *table, r Relationship, child *frame.Frame, childDefs []Definition) ([]*frame.Column, []Definition, error) {
	parentIdx, err := parent.frame.KeyIndex(parent.key)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", apperrors.ErrSynthesis, err)
	}
	fk, err := es.tables[r.Child].frame.Column(r.ChildKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", apperrors.ErrSynthesis, err)
	}

	groups := make([][]int, parent.frame.Len())
	orphans := 0
	for row, v := range fk.Values {
		p, ok := parentIdx[frame.KeyOf(v)]
		if !ok {
			orphans++
			continue
		}
		groups[p] = append(groups[p], row)
	}
	if orphans > 0 {
		es.logger.WarnContext(ctx, "Child rows reference missing parents",
			slog.String("child", r.Child),
			slog.String("parent", r.Parent),
			slog.Int("rows", orphans),
		)
	}

	depthOf := make(map[string]int, len(childDefs))
	for _, d := range childDefs {
		depthOf[d.Name] = d.Depth
	}

	count := make([]any, len(groups))
	for i, g := range groups {
		count[i] = int64(len(g))
	}
	cols := []*frame.Column{frame.NewColumn(fmt.Sprintf("%s(%s)", PrimitiveCount, r.Child), frame.Int, count)}
	defs := []Definition{{Name: cols[0].Name, Primitive: PrimitiveCount, Base: []string{r.Child}, Table: r.Parent, Depth: 1}}

	for _, c := range child.Columns() {
		if c.Name == es.tables[r.Child].key {
			continue
		}
		var primitives []string
		switch {
		case c.Kind.Numeric():
			primitives = numericAggregations
		case c.Kind == frame.String || c.Kind == frame.Category:
			primitives = categoricalAggregations
		default:
			continue
		}
		base := r.Child + "." + c.Name
		for _, p := range primitives {
			col := reduce(p, fmt.Sprintf("%s(%s)", p, base), c, groups)
			cols = append(cols, col)
			defs = append(defs, Definition{Name: col.Name, Primitive: p, Base: []string{base}, Table: r.Parent, Depth: depthOf[c.Name] + 1})
		}
	}
	return cols, defs, nil
}

// direct copies the parent's features onto each child row, prefixed with the parent
// table name. Children whose parent is missing get nil.
func (es *EntitySet) direct(ctx context.Context, child *table, r Relationship, parent *frame.Frame, parentDefs []Definition) ([]*frame.Column, []Definition, error) {
	parentIdx, err := parent.KeyIndex(r.ParentKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", apperrors.ErrSynthesis, err)
	}
	fk, err := child.frame.Column(r.ChildKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", apperrors.ErrSynthesis, err)
	}

	rows := make([]int, len(fk.Values))
	orphans := 0
	for i, v := range fk.Values {
		p, ok := parentIdx[frame.KeyOf(v)]
		if !ok {
			p = -1
			orphans++
		}
		rows[i] = p
	}
	if orphans > 0 {
		es.logger.WarnContext(ctx, "Rows without a parent get empty direct features",
			slog.String("child", r.Child),
			slog.String("parent", r.Parent),
			slog.Int("rows", orphans),
		)
	}

	depthOf := make(map[string]int, len(parentDefs))
	for _, d := range parentDefs {
		depthOf[d.Name] = d.Depth
	}

	var cols []*frame.Column
	var defs []Definition
	for _, c := range parent.Columns() {
		if c.Name == r.ParentKey {
			continue
		}
		values := make([]any, len(rows))
		for i, p := range rows {
			if p >= 0 {
				values[i] = c.Values[p]
			}
		}
		name := r.Parent + "." + c.Name
		col := frame.NewColumn(name, c.Kind, values)
		if c.Levels != nil {
			col.Levels = append([]string(nil), c.Levels...)
		}
		cols = append(cols, col)
		defs = append(defs, Definition{Name: name, Primitive: PrimitiveDirect, Base: []string{c.Name}, Table: r.Parent, Depth: depthOf[c.Name] + 1})
	}
	return cols, defs, nil
}

func cloneColumn(c *frame.Column, name string) *frame.Column {
	values := make([]any, len(c.Values))
	copy(values, c.Values)
	out := frame.NewColumn(name, c.Kind, values)
	if c.Levels != nil {
		out.Levels = append([]string(nil), c.Levels...)
	}
	return out
}

// transformDate extracts a calendar part. WEEKDAY counts from Monday = 0.
func transformDate(primitive string, c *frame.Column) *frame.Column {
	values := make([]any, len(c.Values))
	for i, v := range c.Values {
		t, ok := v.(time.Time)
		if !ok {
			continue
		}
		switch primitive {
		case PrimitiveDay:
			values[i] = int64(t.Day())
		case PrimitiveMonth:
			values[i] = int64(t.Month())
		case PrimitiveYear:
			values[i] = int64(t.Year())
		case PrimitiveWeekday:
			values[i] = int64((int(t.Weekday()) + 6) % 7)
		}
	}
	return frame.NewColumn(fmt.Sprintf("%s(%s)", primitive, c.Name), frame.Int, values)
}

// reduce applies one aggregation per group. Nil values are skipped; an empty group
// gives 0 for SUM and NUM_UNIQUE and nil otherwise. STD is the sample deviation.
func reduce(primitive, name string, c *frame.Column, groups [][]int) *frame.Column {
	kind := frame.Float
	switch primitive {
	case PrimitiveNumUnique:
		kind = frame.Int
	case PrimitiveMode:
		kind = c.Kind
	}
	values := make([]any, len(groups))
	for i, g := range groups {
		if primitive == PrimitiveNumUnique || primitive == PrimitiveMode {
			values[i] = reduceCategorical(primitive, c, g)
			continue
		}
		nums := make([]float64, 0, len(g))
		for _, row := range g {
			if x, err := frame.ToFloat(c.Values[row]); err == nil && !math.IsNaN(x) {
				nums = append(nums, x)
			}
		}
		values[i] = reduceNumeric(primitive, nums)
	}
	col := frame.NewColumn(name, kind, values)
	if kind == frame.Category && c.Levels != nil {
		col.Levels = append([]string(nil), c.Levels...)
	}
	return col
}

func reduceNumeric(primitive string, nums []float64) any {
	if primitive == PrimitiveSum {
		sum := 0.0
		for _, x := range nums {
			sum += x
		}
		return sum
	}
	if len(nums) == 0 {
		return nil
	}
	switch primitive {
	case PrimitiveMean:
		return mean(nums)
	case PrimitiveMin:
		m := nums[0]
		for _, x := range nums[1:] {
			m = math.Min(m, x)
		}
		return m
	case PrimitiveMax:
		m := nums[0]
		for _, x := range nums[1:] {
			m = math.Max(m, x)
		}
		return m
	case PrimitiveStd:
		if len(nums) < 2 {
			return nil
		}
		mu := mean(nums)
		ss := 0.0
		for _, x := range nums {
			ss += (x - mu) * (x - mu)
		}
		return math.Sqrt(ss / float64(len(nums)-1))
	}
	return nil
}

func reduceCategorical(primitive string, c *frame.Column, rows []int) any {
	counts := make(map[string]int)
	for _, row := range rows {
		if v := c.Values[row]; v != nil {
			counts[frame.Format(v)]++
		}
	}
	if primitive == PrimitiveNumUnique {
		return int64(len(counts))
	}
	if len(counts) == 0 {
		return nil
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best := keys[0]
	for _, k := range keys[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best
}

func mean(nums []float64) float64 {
	sum := 0.0
	for _, x := range nums {
		sum += x
	}
	return sum / float64(len(nums))
}
