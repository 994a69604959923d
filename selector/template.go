package selector

import (
	"fmt"
	"regexp"
	"strings"
)

// placeholderPatterns maps the fixed §4.F vocabulary of URI template
// tokens to the regexp fragment each expands to. {spider} is handled
// separately in nextPlaceholder since its expansion (the literal spider
// name) is supplied per call rather than fixed.
var placeholderPatterns = map[string]string{
	"{year}":      `[0-9]{4}`,
	"{month}":     `[0-9]{2}`,
	"{day}":       `[0-9]{2}`,
	"{timestamp}": `[0-9]+`,
	"{filename}":  `[^/\\]+\.wacz$`,
}

const spiderToken = "{spider}"

// CompileTemplate turns a URI template such as
// "{spider}/{year}{month}{day}-{timestamp}.wacz" into a regexp that
// fullmatches generated filenames, substituting the fixed placeholder
// vocabulary plus the literal (escaped) spiderName for {spider}, and
// escaping everything else as a literal.
func CompileTemplate(template, spiderName string) (*regexp.Regexp, error) {
	var b strings.Builder
	remaining := template

	for remaining != "" {
		idx, token, expr := nextPlaceholder(remaining, spiderName)
		if idx < 0 {
			b.WriteString(regexp.QuoteMeta(remaining))
			break
		}
		b.WriteString(regexp.QuoteMeta(remaining[:idx]))
		b.WriteString(expr)
		remaining = remaining[idx+len(token):]
	}

	re, err := regexp.Compile("^" + b.String() + "$")
	if err != nil {
		return nil, fmt.Errorf("selector: compile template %q: %w", template, err)
	}
	return re, nil
}

// HasPlaceholder reports whether template contains any token from the
// placeholder vocabulary, including {spider}.
func HasPlaceholder(template string) bool {
	if strings.Contains(template, spiderToken) {
		return true
	}
	for token := range placeholderPatterns {
		if strings.Contains(template, token) {
			return true
		}
	}
	return false
}

// StaticPrefix returns the portion of template before its first
// placeholder brace — the root a resolver should enumerate/list from.
func StaticPrefix(template string) string {
	if i := strings.IndexByte(template, '{'); i >= 0 {
		return template[:i]
	}
	return template
}

func nextPlaceholder(s, spiderName string) (idx int, token, expr string) {
	best := -1
	var bestToken, bestExpr string

	if i := strings.Index(s, spiderToken); i >= 0 {
		best = i
		bestToken = spiderToken
		bestExpr = regexp.QuoteMeta(spiderName)
	}
	for tok, e := range placeholderPatterns {
		i := strings.Index(s, tok)
		if i >= 0 && (best < 0 || i < best) {
			best = i
			bestToken = tok
			bestExpr = e
		}
	}
	return best, bestToken, bestExpr
}
