package sqlguard

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// scope holds the name bindings visible at one query nesting level.
// Lookups fall through to the enclosing scope so correlated subqueries
// can reference outer aliases.
type scope struct {
	parent *scope

	// tables maps both aliases and real names to the real table name.
	// Alias uniqueness, not table-name uniqueness, is the resolution
	// key, which is what makes self-joins resolve correctly.
	tables map[string]string

	// derived holds aliases bound to derived tables and CTEs, whose
	// bodies are validated independently.
	derived map[string]struct{}

	// selects holds SELECT-list expression aliases, legal as bare
	// references in ORDER BY / GROUP BY / HAVING.
	selects map[string]struct{}
}

func newScope(parent *scope) *scope {
	return &scope{
		parent:  parent,
		tables:  make(map[string]string),
		derived: make(map[string]struct{}),
		selects: make(map[string]struct{}),
	}
}

func (s *scope) resolveTable(name string) (string, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if real, ok := sc.tables[name]; ok {
			return real, true
		}
	}
	return "", false
}

func (s *scope) isDerived(name string) bool {
	for sc := s; sc != nil; sc = sc.parent {
		if _, ok := sc.derived[name]; ok {
			return true
		}
	}
	return false
}

func (s *scope) isSelectAlias(name string) bool {
	for sc := s; sc != nil; sc = sc.parent {
		if _, ok := sc.selects[name]; ok {
			return true
		}
	}
	return false
}

// checkStructure parses sqlText and validates every table and column
// reference against the whitelist. Fails closed: anything it cannot
// positively resolve is rejected.
func (g *Guardrail) checkStructure(sqlText string) error {
	result, err := pg_query.Parse(sqlText)
	if err != nil {
		return reject("SQL parse error: %v", err)
	}
	if len(result.Stmts) != 1 {
		return reject("expected exactly one statement")
	}

	sel := result.Stmts[0].Stmt.GetSelectStmt()
	if sel == nil {
		return reject("top-level query must be a SELECT")
	}
	return g.checkSelect(sel, nil)
}

// checkSelect validates one SELECT nesting level: registers CTEs and
// FROM-clause bindings, validates derived-table bodies recursively, then
// checks every column reference in the level's expressions.
func (g *Guardrail) checkSelect(sel *pg_query.SelectStmt, parent *scope) error {
	sc := newScope(parent)

	if sel.WithClause != nil {
		for _, cteNode := range sel.WithClause.Ctes {
			cte := cteNode.GetCommonTableExpr()
			if cte == nil {
				return reject("unsupported WITH clause item")
			}
			// Registered before its body is checked so recursive
			// CTEs resolve their own name.
			sc.derived[cte.Ctename] = struct{}{}
			body := cte.Ctequery.GetSelectStmt()
			if body == nil {
				return reject("CTE '%s' must be a SELECT", cte.Ctename)
			}
			if err := g.checkSelect(body, sc); err != nil {
				return err
			}
		}
	}

	// Set operations: validate each side in its own scope.
	if sel.Op != pg_query.SetOperation_SETOP_NONE {
		if sel.Larg != nil {
			if err := g.checkSelect(sel.Larg, parent); err != nil {
				return err
			}
		}
		if sel.Rarg != nil {
			if err := g.checkSelect(sel.Rarg, parent); err != nil {
				return err
			}
		}
		// ORDER BY on a set operation names output columns, which come
		// from the branch select lists.
		collectSetOpAliases(sel, sc)
		for _, n := range sel.SortClause {
			if err := g.checkExpr(n, sc); err != nil {
				return err
			}
		}
		return nil
	}

	var quals []*pg_query.Node
	for _, from := range sel.FromClause {
		if err := g.collectFrom(from, sc, &quals); err != nil {
			return err
		}
	}

	for _, t := range sel.TargetList {
		rt := t.GetResTarget()
		if rt != nil && rt.Name != "" {
			sc.selects[rt.Name] = struct{}{}
		}
	}

	var exprs []*pg_query.Node
	for _, t := range sel.TargetList {
		if rt := t.GetResTarget(); rt != nil && rt.Val != nil {
			exprs = append(exprs, rt.Val)
		}
	}
	exprs = append(exprs, quals...)
	exprs = append(exprs, sel.DistinctClause...)
	if sel.WhereClause != nil {
		exprs = append(exprs, sel.WhereClause)
	}
	exprs = append(exprs, sel.GroupClause...)
	if sel.HavingClause != nil {
		exprs = append(exprs, sel.HavingClause)
	}
	exprs = append(exprs, sel.SortClause...)
	exprs = append(exprs, sel.WindowClause...)
	if sel.LimitCount != nil {
		exprs = append(exprs, sel.LimitCount)
	}
	if sel.LimitOffset != nil {
		exprs = append(exprs, sel.LimitOffset)
	}

	for _, e := range exprs {
		if err := g.checkExpr(e, sc); err != nil {
			return err
		}
	}
	return nil
}

// collectSetOpAliases registers the select-list aliases of every branch
// of a set operation into sc.
func collectSetOpAliases(sel *pg_query.SelectStmt, sc *scope) {
	if sel == nil {
		return
	}
	if sel.Op != pg_query.SetOperation_SETOP_NONE {
		collectSetOpAliases(sel.Larg, sc)
		collectSetOpAliases(sel.Rarg, sc)
		return
	}
	for _, t := range sel.TargetList {
		if rt := t.GetResTarget(); rt != nil && rt.Name != "" {
			sc.selects[rt.Name] = struct{}{}
		}
	}
}

// collectFrom registers the bindings introduced by one FROM-clause item.
// Join qualifications are collected for the expression pass, after every
// binding of the level is known.
func (g *Guardrail) collectFrom(node *pg_query.Node, sc *scope, quals *[]*pg_query.Node) error {
	switch {
	case node.GetRangeVar() != nil:
		rv := node.GetRangeVar()
		name := rv.Relname
		alias := ""
		if rv.Alias != nil {
			alias = rv.Alias.Aliasname
		}

		if sc.isDerived(name) {
			// CTE reference
			if alias != "" {
				sc.derived[alias] = struct{}{}
			}
			return nil
		}
		if !g.wl.AllowsTable(name) {
			return reject("table '%s' is not in the allowed whitelist", name)
		}
		sc.tables[name] = name
		if alias != "" {
			sc.tables[alias] = name
		}
		return nil

	case node.GetJoinExpr() != nil:
		j := node.GetJoinExpr()
		if j.Larg != nil {
			if err := g.collectFrom(j.Larg, sc, quals); err != nil {
				return err
			}
		}
		if j.Rarg != nil {
			if err := g.collectFrom(j.Rarg, sc, quals); err != nil {
				return err
			}
		}
		if j.Quals != nil {
			*quals = append(*quals, j.Quals)
		}
		return nil

	case node.GetRangeSubselect() != nil:
		rs := node.GetRangeSubselect()
		if rs.Alias == nil || rs.Alias.Aliasname == "" {
			return reject("derived table requires an alias")
		}
		body := rs.Subquery.GetSelectStmt()
		if body == nil {
			return reject("derived table '%s' must be a SELECT", rs.Alias.Aliasname)
		}
		// The body is validated on its own; columns qualified by the
		// derived alias are then accepted without further resolution.
		if err := g.checkSelect(body, sc); err != nil {
			return err
		}
		sc.derived[rs.Alias.Aliasname] = struct{}{}
		return nil

	default:
		return reject("unsupported FROM clause item")
	}
}

// checkExpr validates every column reference in an expression tree.
// Scalar subqueries are validated recursively with the current scope as
// parent, so correlated references resolve outward.
func (g *Guardrail) checkExpr(expr *pg_query.Node, sc *scope) error {
	var firstErr error
	walk(expr, func(node *pg_query.Node) bool {
		if firstErr != nil {
			return false
		}
		if cr := node.GetColumnRef(); cr != nil {
			firstErr = g.checkColumnRef(cr, sc)
			return false
		}
		if sub := node.GetSubLink(); sub != nil {
			// The tested expression of IN/ANY/ALL sits outside the
			// subquery and resolves in the current scope.
			if sub.Testexpr != nil {
				if err := g.checkExpr(sub.Testexpr, sc); err != nil {
					firstErr = err
					return false
				}
			}
			body := sub.Subselect.GetSelectStmt()
			if body == nil {
				firstErr = reject("subquery must be a SELECT")
				return false
			}
			firstErr = g.checkSelect(body, sc)
			return false
		}
		return true
	})
	return firstErr
}

func (g *Guardrail) checkColumnRef(cr *pg_query.ColumnRef, sc *scope) error {
	var parts []string
	star := false
	for _, f := range cr.Fields {
		if f.GetAStar() != nil {
			star = true
			continue
		}
		s := f.GetString_()
		if s == nil {
			return reject("unsupported column reference")
		}
		parts = append(parts, s.Sval)
	}

	// Unqualified reference.
	if len(parts) == 0 {
		// bare *
		return nil
	}
	if len(parts) == 1 && !star {
		name := parts[0]
		if sc.isSelectAlias(name) {
			return nil
		}
		if !g.wl.AllowsColumnAnywhere(name) {
			return reject("bare column '%s' is not allowed", name)
		}
		return nil
	}

	// Qualified reference: alias.column, alias.*, or deeper.
	qualifier := parts[0]
	if real, ok := sc.resolveTable(qualifier); ok {
		if star || len(parts) == 1 {
			return nil
		}
		name := parts[len(parts)-1]
		if !g.wl.AllowsColumn(real, name) {
			return reject("column '%s.%s' is not allowed", real, name)
		}
		return nil
	}
	if sc.isDerived(qualifier) {
		// Body already validated against the same whitelist.
		return nil
	}
	name := "*"
	if len(parts) > 1 {
		name = parts[len(parts)-1]
	}
	return reject("unknown table/alias '%s' used in column '%s.%s'", qualifier, qualifier, name)
}

// walk traverses every Node reachable from msg in field order. visit
// returns false to prune descent below that node.
func walk(msg proto.Message, visit func(*pg_query.Node) bool) {
	if msg == nil {
		return
	}
	if node, ok := msg.(*pg_query.Node); ok {
		if node == nil || !visit(node) {
			return
		}
	}
	walkFields(msg.ProtoReflect(), visit)
}

func walkFields(m protoreflect.Message, visit func(*pg_query.Node) bool) {
	m.Range(func(fd protoreflect.FieldDescriptor, v protoreflect.Value) bool {
		switch {
		case fd.IsList():
			if fd.Kind() == protoreflect.MessageKind {
				list := v.List()
				for i := 0; i < list.Len(); i++ {
					walk(list.Get(i).Message().Interface(), visit)
				}
			}
		case fd.IsMap():
			// pg_query trees carry no map fields
		case fd.Kind() == protoreflect.MessageKind:
			walk(v.Message().Interface(), visit)
		}
		return true
	})
}
