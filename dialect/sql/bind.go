package sql

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/malweka/GoliathData-sub002/dialect"
)

// Bind resolves params and rewrites the parameter tokens of query to the
// placeholder style of d. Tokens inside quoted text and identifiers are left
// alone, as are tokens naming no parameter (e.g. @@IDENTITY).
//
// With BindNamed the query is returned as is with sql.Named arguments. With
// BindDollar each distinct parameter gets one $n placeholder; with
// BindQuestion every token becomes a ? and gets its own argument.
func Bind(d *dialect.Dialect, query string, params []dialect.Parameter) (string, []any, error) {
	values := make(map[string]any, len(params))
	for _, p := range params {
		v, err := p.Resolve()
		if err != nil {
			return "", nil, fmt.Errorf("dialect/sql: resolve parameter %s: %w", p.Name, err)
		}
		values[p.Name] = v
	}
	if d.BindStyle() == dialect.BindNamed {
		args := make([]any, len(params))
		for i, p := range params {
			args[i] = sql.Named(p.Name, values[p.Name])
		}
		return query, args, nil
	}
	var (
		b      strings.Builder
		args   []any
		index  = make(map[string]int)
		prefix = d.ParameterPrefix()
		quote  byte
	)
	for i := 0; i < len(query); {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '[':
			quote = ']'
		case strings.HasPrefix(query[i:], prefix):
			j := i + len(prefix)
			for j < len(query) && isNameChar(query[j]) {
				j++
			}
			name := query[i+len(prefix) : j]
			v, ok := values[name]
			if !ok || name == "" {
				break
			}
			switch d.BindStyle() {
			case dialect.BindDollar:
				n, seen := index[name]
				if !seen {
					args = append(args, v)
					n = len(args)
					index[name] = n
				}
				b.WriteString("$" + strconv.Itoa(n))
			default:
				args = append(args, v)
				b.WriteByte('?')
			}
			i = j
			continue
		}
		b.WriteByte(c)
		i++
	}
	return b.String(), args, nil
}

func isNameChar(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
