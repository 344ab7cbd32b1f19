// Package filter restricts survey tables to chosen column values.
package filter

import (
	"sort"

	"surveydash/domain/dataset"
)

// Spec maps a column to the values a row may hold in it. An empty value list
// matches no rows; an empty Spec matches every row.
type Spec map[string][]dataset.Value

// Columns returns the constrained columns in sorted order
func (s Spec) Columns() []string {
	cols := make([]string, 0, len(s))
	for c := range s {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// BuildOptions lists the distinct non-missing values of each column in
// first-seen order
func BuildOptions(table *dataset.Table, columns []string) (Spec, error) {
	if err := table.RequireColumns(columns...); err != nil {
		return nil, err
	}

	spec := make(Spec, len(columns))
	for _, col := range columns {
		values, _ := table.Column(col)
		seen := make(map[string]bool)
		options := []dataset.Value{}
		for _, v := range values {
			if v.IsMissing() || seen[v.Key()] {
				continue
			}
			seen[v.Key()] = true
			options = append(options, v)
		}
		spec[col] = options
	}
	return spec, nil
}

// Apply keeps the rows whose value in every constrained column is one of the
// allowed values
func Apply(table *dataset.Table, spec Spec) (*dataset.Table, error) {
	columns := spec.Columns()
	if err := table.RequireColumns(columns...); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return table, nil
	}

	allowed := make(map[string]map[string]bool, len(columns))
	for _, col := range columns {
		set := make(map[string]bool, len(spec[col]))
		for _, v := range spec[col] {
			set[v.Key()] = true
		}
		allowed[col] = set
	}

	return table.Where(func(r dataset.Row) bool {
		for _, col := range columns {
			if !allowed[col][r.Get(col).Key()] {
				return false
			}
		}
		return true
	}), nil
}

// UniqueResponses lists the distinct values of a question, missing included,
// in first-seen order
func UniqueResponses(table *dataset.Table, question string) ([]dataset.Value, error) {
	values, err := table.Column(question)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	out := []dataset.Value{}
	for _, v := range values {
		if seen[v.Key()] {
			continue
		}
		seen[v.Key()] = true
		out = append(out, v)
	}
	return out, nil
}
