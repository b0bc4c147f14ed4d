package intent

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// folded keeps a lower-cased string next to the original so that matching can
// run on the lower-cased form while extracted paths and content keep the
// user's casing. Both strings always share byte offsets; when lower-casing
// would change the byte layout, raw is replaced by the lower-cased text.
type folded struct {
	lower string
	raw   string
}

func fold(s string) folded {
	var b strings.Builder
	b.Grow(len(s))
	aligned := true
	for _, r := range s {
		l := unicode.ToLower(r)
		if r == utf8.RuneError || utf8.RuneLen(l) != utf8.RuneLen(r) {
			aligned = false
		}
		b.WriteRune(l)
	}
	lower := b.String()
	if !aligned || len(lower) != len(s) {
		return folded{lower: lower, raw: lower}
	}
	return folded{lower: lower, raw: s}
}

func (f folded) slice(i, j int) folded {
	return folded{lower: f.lower[i:j], raw: f.raw[i:j]}
}

func (f folded) from(i int) folded {
	return f.slice(i, len(f.lower))
}

// remove drops every occurrence of sub (matched against lower).
func (f folded) remove(sub string) folded {
	if sub == "" {
		return f
	}
	var lower, raw strings.Builder
	rest := f
	for {
		i := strings.Index(rest.lower, sub)
		if i < 0 {
			break
		}
		lower.WriteString(rest.lower[:i])
		raw.WriteString(rest.raw[:i])
		rest = rest.from(i + len(sub))
	}
	lower.WriteString(rest.lower)
	raw.WriteString(rest.raw)
	return folded{lower: lower.String(), raw: raw.String()}
}

func (f folded) trim() folded {
	start := len(f.lower) - len(strings.TrimLeftFunc(f.lower, unicode.IsSpace))
	end := len(strings.TrimRightFunc(f.lower, unicode.IsSpace))
	if start >= end {
		return folded{}
	}
	return f.slice(start, end)
}

// fields splits around runs of white space like strings.Fields.
func (f folded) fields() []folded {
	var out []folded
	start := -1
	for i, r := range f.lower {
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, f.slice(start, i))
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, f.from(start))
	}
	return out
}
