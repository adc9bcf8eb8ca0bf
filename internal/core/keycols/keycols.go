// Package keycols picks the columns worth comparing when looking for
// duplicate records.
package keycols

import (
	"math"
	"strings"

	"github.com/agenthands/steward/internal/core/model"
)

var (
	identifierTokens = []string{"id", "key", "code", "number", "nr", "no"}
	nameTokens       = []string{"name", "first", "last", "customer", "client", "person"}
)

const (
	maxCategoricalDistinct = 50
	categoricalRatio       = 0.1
	maxTextColumns         = 5
	maxComboCategorical    = 2
)

// Classify assigns each column of ds a role. Name patterns win over
// value types; substring matching is deliberate, so "notes" is an
// identifier because it contains "no".
func Classify(ds *model.Dataset) model.RoleMap {
	var roles model.RoleMap
	limit := math.Min(maxCategoricalDistinct, float64(ds.Len())*categoricalRatio)

	for _, col := range ds.Columns() {
		lower := strings.ToLower(col.Name)
		switch {
		case containsAny(lower, identifierTokens):
			roles.Identifier = append(roles.Identifier, col.Name)
		case containsAny(lower, nameTokens):
			roles.Name = append(roles.Name, col.Name)
		case col.Numeric():
			roles.Numerical = append(roles.Numerical, col.Name)
		case col.Textual() && float64(distinct(ds, col.Name)) < limit:
			roles.Categorical = append(roles.Categorical, col.Name)
		case col.Kind == model.KindDate:
			roles.Date = append(roles.Date, col.Name)
		default:
			roles.Unclassified = append(roles.Unclassified, col.Name)
		}
	}
	return roles
}

// Suggest ranks duplicate-detection strategies: identifiers, then names,
// then names with up to two categorical columns, then the first five text
// columns. Strategies without columns are omitted.
func Suggest(ds *model.Dataset, roles model.RoleMap) []model.Strategy {
	var out []model.Strategy
	add := func(name, desc string, cols []string, threshold int) {
		out = append(out, model.Strategy{
			Priority:    len(out) + 1,
			Name:        name,
			Columns:     append([]string(nil), cols...),
			Threshold:   threshold,
			Description: desc,
		})
	}

	if len(roles.Identifier) > 0 {
		add("Exact ID match", "Find records with identical ID values", roles.Identifier, 100)
	}
	if len(roles.Name) > 0 {
		add("Fuzzy name match", "Find records with similar names using fuzzy matching", roles.Name, 85)
	}
	if len(roles.Name) > 0 && len(roles.Categorical) > 0 {
		cats := roles.Categorical
		if len(cats) > maxComboCategorical {
			cats = cats[:maxComboCategorical]
		}
		combined := append(append([]string(nil), roles.Name...), cats...)
		add("Name + Category match", "Find records with similar names and categories", combined, 90)
	}
	if text := ds.TextColumns(); len(text) > 0 {
		if len(text) > maxTextColumns {
			text = text[:maxTextColumns]
		}
		add("All text fields", "Comprehensive check across all text fields", text, 80)
	}
	return out
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func distinct(ds *model.Dataset, column string) int {
	seen := make(map[string]struct{})
	for _, v := range ds.ColumnValues(column) {
		if v.IsNull() {
			continue
		}
		seen[v.String()] = struct{}{}
	}
	return len(seen)
}
