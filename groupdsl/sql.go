package groupdsl

import (
	"fmt"
	"strings"
)

// EnrichmentView is the pre-joined resource catalog all group predicates
// target.
const EnrichmentView = "enrichmentdetails"

// CompileExists compiles a parsed condition into the body of an EXISTS
// subquery against the enrichment view, correlated to the fact row aliased
// as "a". It returns the subquery body and the resolved type; callers need
// the type because it decides the correlation key.
//
// Correlation: for resolved type du (covering sector) the fact id is an
// 11-character prefix of the enrichment fullname; anything else joins on the
// full id. Pivoted fact tables expose the id as the quoted "Id" column.
func CompileExists(c *Condition, pivoted bool) (string, string) {
	resolvedType := c.ResolvedType()

	idCol := "a.id"
	if pivoted {
		idCol = `a."Id"`
	}
	correlation := fmt.Sprintf("%s = b.fullname", idCol)
	if resolvedType == "du" {
		correlation = fmt.Sprintf("LEFT(%s, 11) = b.fullname", idCol)
	}

	parts := []string{
		"SELECT 1",
		"FROM " + EnrichmentView + " b",
		"WHERE " + correlation,
	}

	if resolvedType != "" {
		parts = append(parts, fmt.Sprintf("AND type = lower('%s')", escape(resolvedType)))
	}
	if c.Market != nil {
		parts = append(parts, matchPredicate("market", c.Market))
	}
	if c.Band != nil {
		parts = append(parts, matchPredicate("band", c.Band))
	}

	return strings.Join(parts, " "), resolvedType
}

// matchPredicate renders one attribute constraint as a SQL predicate.
func matchPredicate(column string, m *Match) string {
	switch m.Kind {
	case MatchLike:
		return fmt.Sprintf("AND %s like '%s'", column, escape(m.Values[0]))
	case MatchIn:
		quoted := make([]string, len(m.Values))
		for i, v := range m.Values {
			quoted[i] = "'" + escape(v) + "'"
		}
		return fmt.Sprintf("AND %s in (%s)", column, strings.Join(quoted, ", "))
	default:
		return fmt.Sprintf("AND %s = '%s'", column, escape(m.Values[0]))
	}
}

// escape doubles single quotes for safe embedding in a SQL string literal.
func escape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
