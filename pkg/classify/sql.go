package classify

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// QueryType classifies a SQL statement by its leading keyword.
type QueryType string

const (
	QuerySelect QueryType = "select"
	QueryInsert QueryType = "insert"
	QueryUpdate QueryType = "update"
	QueryDelete QueryType = "delete"
	QueryDDL    QueryType = "ddl"
	QueryOther  QueryType = "other"
)

// ClassifyQuery maps the statement's first keyword to a QueryType.
// CREATE, ALTER and DROP all classify as DDL.
func ClassifyQuery(query string) QueryType {
	upper := strings.ToUpper(strings.TrimSpace(query))
	switch {
	case strings.HasPrefix(upper, "SELECT"):
		return QuerySelect
	case strings.HasPrefix(upper, "INSERT"):
		return QueryInsert
	case strings.HasPrefix(upper, "UPDATE"):
		return QueryUpdate
	case strings.HasPrefix(upper, "DELETE"):
		return QueryDelete
	case strings.HasPrefix(upper, "CREATE"),
		strings.HasPrefix(upper, "ALTER"),
		strings.HasPrefix(upper, "DROP"):
		return QueryDDL
	default:
		return QueryOther
	}
}

var sqlParamPattern = regexp.MustCompile(`\$\d+|\?|:\w+`)

// ExtractParams lists the bind-parameter placeholders in order of
// appearance. Positional ($1, ?), and named (:name) styles are recognized.
func ExtractParams(query string) []string {
	return sqlParamPattern.FindAllString(query, -1)
}

// ExtractTables lists table names referenced after FROM, INTO, UPDATE and
// JOIN keywords. This is keyword scanning, not full SQL parsing; subqueries
// and quoted identifiers are out of scope.
func ExtractTables(query string) []string {
	fields := strings.Fields(query)
	var tables []string
	seen := make(map[string]bool)

	for i, field := range fields {
		switch strings.ToUpper(field) {
		case "FROM", "INTO", "UPDATE", "JOIN":
			if i+1 >= len(fields) {
				continue
			}
			name := strings.Trim(fields[i+1], "(),;")
			if name == "" || strings.ContainsAny(name, "()") {
				continue
			}
			// schema-qualified names keep only the table part
			if j := strings.LastIndexByte(name, '.'); j >= 0 {
				name = name[j+1:]
			}
			if !seen[name] {
				seen[name] = true
				tables = append(tables, name)
			}
		}
	}
	return tables
}

type sqlDescriber struct{}

func (sqlDescriber) Describe(w io.Writer, input string) error {
	fmt.Fprintf(w, "SQL Query Analysis:\n")
	fmt.Fprintf(w, "  Type: %s\n", ClassifyQuery(input))
	fmt.Fprintf(w, "  Tables: %v\n", ExtractTables(input))
	fmt.Fprintf(w, "  Params: %v\n", ExtractParams(input))
	return nil
}
