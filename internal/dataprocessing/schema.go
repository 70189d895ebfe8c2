package dataprocessing

import "strings"

// Schema is the resolved mapping of semantic roles to actual column names.
// The names are best-effort: inference never fails, so a name may point at
// a column that does not exist in the data. Downstream stages surface that
// as a schema-mismatch error at first use rather than here.
type Schema struct {
	DateColumn   string `json:"date_column"`
	ClientColumn string `json:"client_column"`
	AmountColumn string `json:"amount_column"`
}

// headerRule is one inference rule: an ordered set of lowercase substrings
// to look for, and the fixed fallback name used when nothing matches.
type headerRule struct {
	substrings []string
	fallback   string
}

var (
	dateRule   = headerRule{substrings: []string{"date", "fecha"}, fallback: "Date"}
	clientRule = headerRule{substrings: []string{"client", "customer", "parent"}, fallback: "Customer Parent"}
	amountRule = headerRule{substrings: []string{"usd", "total", "amount"}, fallback: "Total"}
)

// amountExact is tried before the amount substring rule. Exports from the
// upstream billing system name the column exactly this.
const amountExact = "Total USD"

// InferSchema locates the date, client and amount columns among arbitrarily
// named headers. For each role the first header (in header order) containing
// one of the role's keywords wins; when nothing matches, a fixed default
// name is returned so the pipeline can report the missing column at the
// point it is actually needed.
func InferSchema(headers []string) Schema {
	amount := amountRule.fallback
	if containsHeader(headers, amountExact) {
		amount = amountExact
	} else if match, ok := firstMatch(headers, amountRule); ok {
		amount = match
	}

	schema := Schema{
		DateColumn:   dateRule.fallback,
		ClientColumn: clientRule.fallback,
		AmountColumn: amount,
	}
	if match, ok := firstMatch(headers, dateRule); ok {
		schema.DateColumn = match
	}
	if match, ok := firstMatch(headers, clientRule); ok {
		schema.ClientColumn = match
	}
	return schema
}

func firstMatch(headers []string, rule headerRule) (string, bool) {
	for _, header := range headers {
		lower := strings.ToLower(header)
		for _, sub := range rule.substrings {
			if strings.Contains(lower, sub) {
				return header, true
			}
		}
	}
	return "", false
}

func containsHeader(headers []string, name string) bool {
	for _, header := range headers {
		if header == name {
			return true
		}
	}
	return false
}
