// Package sqllineage derives lineage from SQL text. It offers two views:
// statement-level table lineage (which tables a statement reads and
// writes) and column-level lineage (how each output column derives from
// source columns, with a transformation classification).
//
// All dialects are parsed with the PostgreSQL grammar, which covers the
// common ANSI subset the classifier cares about. Parse failures are
// collected per statement rather than failing a whole batch.
package sqllineage

import (
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"metalake/internal/domain"
)

// TableLineage is the statement-level answer: the tables a batch reads
// from and writes to.
type TableLineage struct {
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
}

// ColumnMapping is one derived column-level lineage tuple.
type ColumnMapping struct {
	SourceTable              string                     `json:"sourceTable"`
	SourceColumn             string                     `json:"sourceColumn"`
	TargetColumn             string                     `json:"targetColumn"`
	TransformationType       domain.ColumnTransformType `json:"transformationType"`
	TransformationExpression string                     `json:"transformationExpression,omitempty"`
}

// ExtractionError reports a failure for one statement of a batch.
type ExtractionError struct {
	StatementIndex int    `json:"statementIndex"`
	Statement      string `json:"statement"`
	Message        string `json:"message"`
}

// ColumnLineageResult is the column-level answer for a batch.
type ColumnLineageResult struct {
	Mappings []ColumnMapping   `json:"columnMappings"`
	Errors   []ExtractionError `json:"errors"`
}

// ParseTableLineage extracts input and output table names from a SQL
// batch. The dialect hint is accepted for interface parity; parsing
// always uses the PostgreSQL grammar.
func ParseTableLineage(sql, dialect string) (*TableLineage, []ExtractionError) {
	_ = dialect
	result := &TableLineage{}
	var errs []ExtractionError

	forEachStatement(sql, func(i int, stmt string, tree *pg_query.ParseResult, parseErr error) {
		if parseErr != nil {
			errs = append(errs, ExtractionError{
				StatementIndex: i,
				Statement:      stmt,
				Message:        fmt.Sprintf("parse: %v", parseErr),
			})
			return
		}
		for _, raw := range tree.Stmts {
			inputs, outputs := statementTables(raw.Stmt)
			result.Inputs = appendUnique(result.Inputs, inputs...)
			result.Outputs = appendUnique(result.Outputs, outputs...)
		}
	})
	return result, errs
}

// ParseColumnLineage extracts column-level lineage mappings from a SQL
// batch. Unclassifiable output columns are omitted; per-statement parse
// failures are reported in the result, never returned as a hard error.
func ParseColumnLineage(sql, dialect string) *ColumnLineageResult {
	_ = dialect
	result := &ColumnLineageResult{}

	forEachStatement(sql, func(i int, stmt string, tree *pg_query.ParseResult, parseErr error) {
		if parseErr != nil {
			result.Errors = append(result.Errors, ExtractionError{
				StatementIndex: i,
				Statement:      stmt,
				Message:        fmt.Sprintf("parse: %v", parseErr),
			})
			return
		}
		for _, raw := range tree.Stmts {
			result.Mappings = append(result.Mappings, statementColumnMappings(raw.Stmt)...)
		}
	})
	return result
}

// forEachStatement splits a batch into individual statements and parses
// each independently, so one bad statement cannot poison its neighbours.
// When splitting itself fails, the whole input is treated as a single
// statement.
func forEachStatement(sql string, fn func(i int, stmt string, tree *pg_query.ParseResult, parseErr error)) {
	stmts, err := pg_query.SplitWithScanner(sql, true)
	if err != nil || len(stmts) == 0 {
		stmts = []string{sql}
	}
	for i, stmt := range stmts {
		tree, parseErr := pg_query.Parse(stmt)
		fn(i, stmt, tree, parseErr)
	}
}

func appendUnique(dst []string, names ...string) []string {
	for _, name := range names {
		found := false
		for _, existing := range dst {
			if existing == name {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, name)
		}
	}
	return dst
}
