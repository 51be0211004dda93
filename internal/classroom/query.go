package classroom

import (
	"strconv"
	"strings"
)

// query accumulates a SELECT whose filters AND onto a match-all predicate.
// Conditions use ? placeholders, which are renumbered to Postgres $n.
type query struct {
	sb   strings.Builder
	args []any
}

func newQuery(base string) *query {
	q := &query{}
	q.sb.WriteString(base)
	q.sb.WriteString(" WHERE TRUE")
	return q
}

func (q *query) and(cond string, args ...any) {
	q.sb.WriteString(" AND ")
	q.write(cond, args)
}

func (q *query) suffix(s string) {
	q.sb.WriteString(" ")
	q.sb.WriteString(s)
}

func (q *query) write(cond string, args []any) {
	n := 0
	for _, r := range cond {
		if r == '?' && n < len(args) {
			q.args = append(q.args, args[n])
			q.sb.WriteString("$" + strconv.Itoa(len(q.args)))
			n++
			continue
		}
		q.sb.WriteRune(r)
	}
}

func (q *query) String() string { return q.sb.String() }

// likePattern wraps s for a substring ILIKE match with wildcards escaped.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
