package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date marks a time value to be rendered in date-only literal form.
// Bare time.Time values render as datetime literals.
type Date time.Time

const (
	dateLiteralLayout     = `"2006-01-02"`
	datetimeLiteralLayout = `"2006-01-02T15:04:05.000000Z"`
)

// quoteColumnName renders a column reference.
func quoteColumnName(name string) string {
	return "{" + name + "}"
}

// escapeString backslash-escapes quotes and backslashes inside a string
// literal.
func escapeString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '"', '\'', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// quoteValue renders a native value as a formula literal. Strings are
// escaped and double-quoted; booleans render as the TRUE()/FALSE()
// functions; numbers render bare; times render as quoted date or datetime
// literals.
func quoteValue(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return `"` + escapeString(v) + `"`, nil
	case bool:
		if v {
			return "TRUE()", nil
		}
		return "FALSE()", nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case Date:
		return time.Time(v).Format(dateLiteralLayout), nil
	case time.Time:
		return v.UTC().Format(datetimeLiteralLayout), nil
	case fmt.Stringer:
		return quoteValue(v.String())
	default:
		return "", fmt.Errorf("%w: %T", ErrBadLiteral, value)
	}
}

func joinComma(parts []string) string {
	return strings.Join(parts, ",")
}
