package insight

import "strings"

var dataTypes = []struct {
	label      string
	indicators []string
}{
	{"Customer data", []string{"customer", "client", "name", "email", "phone", "address", "city", "state", "zip"}},
	{"Product data", []string{"product", "item", "sku", "price", "cost", "category", "inventory"}},
	{"Transaction data", []string{"transaction", "order", "purchase", "sale", "date", "amount", "quantity"}},
}

var analysisTypes = []string{
	"clustering",
	"segmentation",
	"regression",
	"classification",
	"time series",
	"correlation",
	"trend analysis",
	"anomaly detection",
	"predictive modeling",
	"cohort analysis",
}

const genericSuggestion = "Consider exploratory data analysis to identify patterns and relationships."

// InferDataType names the kind of records in a dataset. A type the text
// names explicitly wins; otherwise the type whose indicators appear in
// the most column names, the first listed on ties.
func InferDataType(columns []string, text string) string {
	lower := strings.ToLower(text)
	for _, dt := range dataTypes {
		if strings.Contains(lower, strings.ToLower(dt.label)) {
			return dt.label
		}
	}

	lowered := make([]string, len(columns))
	for i, c := range columns {
		lowered[i] = strings.ToLower(c)
	}
	best, bestCount := dataTypes[0].label, -1
	for _, dt := range dataTypes {
		count := 0
		for _, ind := range dt.indicators {
			for _, c := range lowered {
				if strings.Contains(c, ind) {
					count++
					break
				}
			}
		}
		if count > bestCount {
			best, bestCount = dt.label, count
		}
	}
	return best
}

// Suggestions picks, for each known kind of analysis the text mentions,
// the first sentence mentioning it.
func Suggestions(text string) []string {
	lower := strings.ToLower(text)
	sentences := strings.Split(text, ".")
	var out []string
	for _, kind := range analysisTypes {
		if !strings.Contains(lower, kind) {
			continue
		}
		for _, s := range sentences {
			if strings.Contains(strings.ToLower(s), kind) {
				out = append(out, strings.TrimSpace(s))
				break
			}
		}
	}
	if len(out) == 0 {
		return []string{genericSuggestion}
	}
	return out
}
