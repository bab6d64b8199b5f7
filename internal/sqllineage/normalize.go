package sqllineage

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// exprKind is the closed set of expression shapes the classifier
// understands. Raw parse-tree nodes are normalised into these before any
// classification happens, so the classifier never inspects the AST
// directly.
type exprKind int

const (
	kindColumnRef exprKind = iota
	kindAggregateCall
	kindFunctionCall
	kindCaseExpr
	kindBinaryExpr
	kindOther
)

// expr is a normalised output-column expression.
type expr struct {
	kind exprKind

	// kindColumnRef
	qualifier string // table or alias qualifier, empty when unqualified
	column    string

	// kindAggregateCall / kindFunctionCall
	funcName string
	args     []expr

	// kindBinaryExpr
	operands []expr
}

// aggregateFuncs are the function names treated as aggregates.
var aggregateFuncs = map[string]bool{
	"sum": true, "count": true, "avg": true, "min": true, "max": true,
	"array_agg": true, "string_agg": true, "bool_and": true, "bool_or": true,
}

// coalescingFuncs are the null-coalescing function names.
var coalescingFuncs = map[string]bool{
	"coalesce": true, "ifnull": true, "nvl": true,
}

// normalizeExpr maps a parse-tree expression node to its tagged kind.
func normalizeExpr(node *pg_query.Node) expr {
	if node == nil {
		return expr{kind: kindOther}
	}

	switch n := node.Node.(type) {
	case *pg_query.Node_ColumnRef:
		qualifier, column, ok := columnRefParts(n.ColumnRef)
		if !ok {
			return expr{kind: kindOther}
		}
		return expr{kind: kindColumnRef, qualifier: qualifier, column: column}

	case *pg_query.Node_FuncCall:
		name := funcCallName(n.FuncCall)
		args := make([]expr, 0, len(n.FuncCall.Args))
		for _, arg := range n.FuncCall.Args {
			args = append(args, normalizeExpr(arg))
		}
		kind := kindFunctionCall
		if aggregateFuncs[name] {
			kind = kindAggregateCall
		}
		return expr{kind: kind, funcName: name, args: args}

	case *pg_query.Node_CoalesceExpr:
		args := make([]expr, 0, len(n.CoalesceExpr.Args))
		for _, arg := range n.CoalesceExpr.Args {
			args = append(args, normalizeExpr(arg))
		}
		return expr{kind: kindFunctionCall, funcName: "coalesce", args: args}

	case *pg_query.Node_CaseExpr:
		return expr{kind: kindCaseExpr}

	case *pg_query.Node_AExpr:
		var operands []expr
		if n.AExpr.Lexpr != nil {
			operands = append(operands, normalizeExpr(n.AExpr.Lexpr))
		}
		if n.AExpr.Rexpr != nil {
			operands = append(operands, normalizeExpr(n.AExpr.Rexpr))
		}
		return expr{kind: kindBinaryExpr, operands: operands}

	case *pg_query.Node_TypeCast:
		// A cast is transparent for lineage purposes.
		return normalizeExpr(n.TypeCast.Arg)
	}

	return expr{kind: kindOther}
}

// columnRefParts splits a ColumnRef into an optional qualifier and a
// column name. Star references are not resolvable and report false.
func columnRefParts(ref *pg_query.ColumnRef) (qualifier, column string, ok bool) {
	var parts []string
	for _, field := range ref.Fields {
		switch f := field.Node.(type) {
		case *pg_query.Node_String_:
			parts = append(parts, f.String_.Sval)
		case *pg_query.Node_AStar:
			return "", "", false
		}
	}
	switch len(parts) {
	case 1:
		return "", parts[0], true
	case 2:
		return parts[0], parts[1], true
	case 3:
		// schema.table.column; keep the table as qualifier
		return parts[1], parts[2], true
	}
	return "", "", false
}

func funcCallName(call *pg_query.FuncCall) string {
	// The last name part is the function itself; earlier parts are
	// schema qualifiers.
	for i := len(call.Funcname) - 1; i >= 0; i-- {
		if s, ok := call.Funcname[i].Node.(*pg_query.Node_String_); ok {
			return strings.ToLower(s.String_.Sval)
		}
	}
	return ""
}

// render produces a best-effort textual form of a normalised expression
// for the transformation_expression field.
func (e expr) render() string {
	switch e.kind {
	case kindColumnRef:
		if e.qualifier != "" {
			return e.qualifier + "." + e.column
		}
		return e.column
	case kindAggregateCall, kindFunctionCall:
		parts := make([]string, len(e.args))
		for i, arg := range e.args {
			parts[i] = arg.render()
		}
		return e.funcName + "(" + strings.Join(parts, ", ") + ")"
	case kindCaseExpr:
		return "CASE ... END"
	case kindBinaryExpr:
		parts := make([]string, len(e.operands))
		for i, op := range e.operands {
			parts[i] = op.render()
		}
		return strings.Join(parts, " op ")
	}
	return ""
}

// columnRefs collects every column reference inside an expression tree.
func (e expr) columnRefs() []expr {
	switch e.kind {
	case kindColumnRef:
		return []expr{e}
	case kindAggregateCall, kindFunctionCall:
		var refs []expr
		for _, arg := range e.args {
			refs = append(refs, arg.columnRefs()...)
		}
		return refs
	case kindBinaryExpr:
		var refs []expr
		for _, op := range e.operands {
			refs = append(refs, op.columnRefs()...)
		}
		return refs
	}
	return nil
}
