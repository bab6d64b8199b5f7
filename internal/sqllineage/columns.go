package sqllineage

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"metalake/internal/domain"
)

// multipleSources is the sentinel recorded when a column derives from a
// conditional expression whose branches cannot be pinned to one source.
const multipleSources = "multiple"

// statementColumnMappings derives column-level lineage for one parsed
// statement. Only SELECT output lists are analysed; INSERT ... SELECT
// and CREATE TABLE AS delegate to their inner query.
func statementColumnMappings(node *pg_query.Node) []ColumnMapping {
	sel := selectFromStatement(node)
	if sel == nil {
		return nil
	}

	aliases := buildAliasMap(sel)
	var mappings []ColumnMapping
	for _, target := range sel.TargetList {
		res, ok := target.Node.(*pg_query.Node_ResTarget)
		if !ok {
			continue
		}
		mappings = append(mappings, classifyTarget(res.ResTarget, aliases)...)
	}
	return mappings
}

func selectFromStatement(node *pg_query.Node) *pg_query.SelectStmt {
	if node == nil {
		return nil
	}
	switch n := node.Node.(type) {
	case *pg_query.Node_SelectStmt:
		return n.SelectStmt
	case *pg_query.Node_InsertStmt:
		if n.InsertStmt.SelectStmt != nil {
			return selectFromStatement(n.InsertStmt.SelectStmt)
		}
	case *pg_query.Node_CreateTableAsStmt:
		return selectFromStatement(n.CreateTableAsStmt.Query)
	}
	return nil
}

// aliasMap resolves table aliases to canonical table names. tables keeps
// FROM-clause order so unqualified columns can be attributed when the
// statement reads a single table.
type aliasMap struct {
	byAlias map[string]string
	tables  []string
}

func buildAliasMap(sel *pg_query.SelectStmt) *aliasMap {
	m := &aliasMap{byAlias: make(map[string]string)}
	for _, from := range sel.FromClause {
		m.addFromNode(from)
	}
	return m
}

func (m *aliasMap) addFromNode(node *pg_query.Node) {
	if node == nil {
		return
	}
	switch n := node.Node.(type) {
	case *pg_query.Node_RangeVar:
		name := n.RangeVar.Relname
		m.tables = append(m.tables, name)
		m.byAlias[name] = name
		if n.RangeVar.Alias != nil && n.RangeVar.Alias.Aliasname != "" {
			m.byAlias[n.RangeVar.Alias.Aliasname] = name
		}
	case *pg_query.Node_JoinExpr:
		m.addFromNode(n.JoinExpr.Larg)
		m.addFromNode(n.JoinExpr.Rarg)
	}
}

// resolve maps a column qualifier (alias or table name) to the canonical
// table. Unqualified columns resolve only when exactly one table is in
// scope.
func (m *aliasMap) resolve(qualifier string) string {
	if qualifier == "" {
		if len(m.tables) == 1 {
			return m.tables[0]
		}
		return ""
	}
	if table, ok := m.byAlias[qualifier]; ok {
		return table
	}
	return qualifier
}

// classifyTarget maps one output column expression to its lineage
// mappings. Unclassifiable expressions yield nothing.
func classifyTarget(res *pg_query.ResTarget, aliases *aliasMap) []ColumnMapping {
	e := normalizeExpr(res.Val)
	targetColumn := targetName(res, e)
	if targetColumn == "" {
		return nil
	}

	switch e.kind {
	case kindColumnRef:
		return []ColumnMapping{{
			SourceTable:        aliases.resolve(e.qualifier),
			SourceColumn:       e.column,
			TargetColumn:       targetColumn,
			TransformationType: domain.ColumnTransformDirect,
		}}

	case kindAggregateCall:
		// An aggregate over a single column reference is AGGREGATED;
		// anything fancier inside the aggregate is DERIVED.
		if len(e.args) == 1 && e.args[0].kind == kindColumnRef {
			src := e.args[0]
			return []ColumnMapping{{
				SourceTable:              aliases.resolve(src.qualifier),
				SourceColumn:             src.column,
				TargetColumn:             targetColumn,
				TransformationType:       domain.ColumnTransformAggregated,
				TransformationExpression: e.render(),
			}}
		}
		return mappingsFromRefs(e, targetColumn, domain.ColumnTransformDerived, aliases)

	case kindCaseExpr:
		return []ColumnMapping{{
			SourceTable:              multipleSources,
			SourceColumn:             multipleSources,
			TargetColumn:             targetColumn,
			TransformationType:       domain.ColumnTransformCase,
			TransformationExpression: e.render(),
		}}

	case kindFunctionCall:
		if coalescingFuncs[e.funcName] {
			return mappingsFromRefs(e, targetColumn, domain.ColumnTransformCoalesced, aliases)
		}
		return mappingsFromRefs(e, targetColumn, domain.ColumnTransformDerived, aliases)

	case kindBinaryExpr:
		return mappingsFromRefs(e, targetColumn, domain.ColumnTransformDerived, aliases)
	}
	return nil
}

// mappingsFromRefs emits one mapping per column referenced inside the
// expression. Expressions that touch no column are omitted.
func mappingsFromRefs(e expr, targetColumn string, transformType domain.ColumnTransformType, aliases *aliasMap) []ColumnMapping {
	refs := e.columnRefs()
	if len(refs) == 0 {
		return nil
	}
	text := e.render()
	mappings := make([]ColumnMapping, 0, len(refs))
	for _, ref := range refs {
		mappings = append(mappings, ColumnMapping{
			SourceTable:              aliases.resolve(ref.qualifier),
			SourceColumn:             ref.column,
			TargetColumn:             targetColumn,
			TransformationType:       transformType,
			TransformationExpression: text,
		})
	}
	return mappings
}

// targetName picks the output column name: the explicit alias when
// present, otherwise the referenced column or function name.
func targetName(res *pg_query.ResTarget, e expr) string {
	if res.Name != "" {
		return res.Name
	}
	switch e.kind {
	case kindColumnRef:
		return e.column
	case kindAggregateCall, kindFunctionCall:
		return e.funcName
	}
	return ""
}
