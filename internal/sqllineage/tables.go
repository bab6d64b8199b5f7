package sqllineage

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// statementTables extracts the input tables (read in SELECT position)
// and output tables (write targets) of one parsed statement.
func statementTables(node *pg_query.Node) (inputs, outputs []string) {
	if node == nil {
		return nil, nil
	}

	seen := make(map[string]bool)

	switch n := node.Node.(type) {
	case *pg_query.Node_SelectStmt:
		collectInputsFromSelect(n.SelectStmt, seen, &inputs)
	case *pg_query.Node_InsertStmt:
		if n.InsertStmt.Relation != nil {
			outputs = append(outputs, n.InsertStmt.Relation.Relname)
		}
		collectInputsFromNode(n.InsertStmt.SelectStmt, seen, &inputs)
	case *pg_query.Node_UpdateStmt:
		if n.UpdateStmt.Relation != nil {
			outputs = append(outputs, n.UpdateStmt.Relation.Relname)
		}
		for _, from := range n.UpdateStmt.FromClause {
			collectInputsFromFromNode(from, seen, &inputs)
		}
		collectInputsFromExpr(n.UpdateStmt.WhereClause, seen, &inputs)
	case *pg_query.Node_CreateTableAsStmt:
		if n.CreateTableAsStmt.Into != nil && n.CreateTableAsStmt.Into.Rel != nil {
			outputs = append(outputs, n.CreateTableAsStmt.Into.Rel.Relname)
		}
		collectInputsFromNode(n.CreateTableAsStmt.Query, seen, &inputs)
	}
	return inputs, outputs
}

// collectInputsFromNode recursively walks a parse tree node, collecting
// table names referenced in read position.
func collectInputsFromNode(node *pg_query.Node, seen map[string]bool, tables *[]string) {
	if node == nil {
		return
	}
	if n, ok := node.Node.(*pg_query.Node_SelectStmt); ok {
		collectInputsFromSelect(n.SelectStmt, seen, tables)
	}
}

// collectInputsFromSelect handles SELECT statements, including set
// operations and CTEs. CTE names are registered as seen first so a
// reference to the CTE is not reported as a real table while the tables
// inside its body still are.
func collectInputsFromSelect(sel *pg_query.SelectStmt, seen map[string]bool, tables *[]string) {
	if sel == nil {
		return
	}

	if sel.WithClause != nil {
		for _, cte := range sel.WithClause.Ctes {
			if c, ok := cte.Node.(*pg_query.Node_CommonTableExpr); ok {
				seen[c.CommonTableExpr.Ctename] = true
			}
		}
		for _, cte := range sel.WithClause.Ctes {
			if c, ok := cte.Node.(*pg_query.Node_CommonTableExpr); ok {
				collectInputsFromNode(c.CommonTableExpr.Ctequery, seen, tables)
			}
		}
	}

	// UNION/INTERSECT/EXCEPT arms
	collectInputsFromSelect(sel.Larg, seen, tables)
	collectInputsFromSelect(sel.Rarg, seen, tables)

	for _, from := range sel.FromClause {
		collectInputsFromFromNode(from, seen, tables)
	}

	collectInputsFromExpr(sel.WhereClause, seen, tables)
	collectInputsFromExpr(sel.HavingClause, seen, tables)
	for _, target := range sel.TargetList {
		collectInputsFromExpr(target, seen, tables)
	}
}

// collectInputsFromFromNode handles nodes in FROM clauses.
func collectInputsFromFromNode(node *pg_query.Node, seen map[string]bool, tables *[]string) {
	if node == nil {
		return
	}

	switch n := node.Node.(type) {
	case *pg_query.Node_RangeVar:
		addInputTable(n.RangeVar.Relname, seen, tables)
	case *pg_query.Node_JoinExpr:
		collectInputsFromFromNode(n.JoinExpr.Larg, seen, tables)
		collectInputsFromFromNode(n.JoinExpr.Rarg, seen, tables)
	case *pg_query.Node_RangeSubselect:
		collectInputsFromNode(n.RangeSubselect.Subquery, seen, tables)
	case *pg_query.Node_RangeFunction:
		// Table-valued functions are not catalog tables
	}
}

// collectInputsFromExpr walks expression nodes looking for subqueries.
func collectInputsFromExpr(node *pg_query.Node, seen map[string]bool, tables *[]string) {
	if node == nil {
		return
	}

	switch n := node.Node.(type) {
	case *pg_query.Node_SubLink:
		collectInputsFromNode(n.SubLink.Subselect, seen, tables)
	case *pg_query.Node_BoolExpr:
		for _, arg := range n.BoolExpr.Args {
			collectInputsFromExpr(arg, seen, tables)
		}
	case *pg_query.Node_AExpr:
		collectInputsFromExpr(n.AExpr.Lexpr, seen, tables)
		collectInputsFromExpr(n.AExpr.Rexpr, seen, tables)
	case *pg_query.Node_ResTarget:
		collectInputsFromExpr(n.ResTarget.Val, seen, tables)
	}
}

func addInputTable(name string, seen map[string]bool, tables *[]string) {
	if name == "" || seen[name] {
		return
	}
	seen[name] = true
	*tables = append(*tables, name)
}
