package profile

import (
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Parse tokenizes a behavior-profile string (whitespace-separated) into a
// sequence of Selectors. Tokens not starting with '%' are kept as literals
// and reproduced verbatim by the extractor. Tokens starting with '%' are
// resolved against the registered selector names; an unrecognized token is
// dropped with a logged warning rather than aborting the parse.
func Parse(fields string) []Selector {
	tokens := strings.Fields(fields)
	out := make([]Selector, 0, len(tokens))
	for _, tok := range tokens {
		if !strings.HasPrefix(tok, "%") {
			out = append(out, Selector{Literal: tok})
			continue
		}
		sel, ok := parseSelectorToken(tok)
		if !ok {
			log.Warnf("anomaly plugin: dropping unrecognized profile token %q", tok)
			continue
		}
		out = append(out, sel)
	}
	return out
}

// parseSelectorToken parses a single "%name", "%name[k]", or "%name[KEY]"
// token.
func parseSelectorToken(tok string) (Selector, bool) {
	body := strings.TrimPrefix(tok, "%")

	name := body
	arg := ""
	hasArg := false
	if i := strings.IndexByte(body, '['); i >= 0 && strings.HasSuffix(body, "]") {
		name = body[:i]
		arg = body[i+1 : len(body)-1]
		hasArg = true
	}

	id, ok := registeredNames[name]
	if !ok {
		return Selector{}, false
	}

	sel := Selector{ID: id}
	if !hasArg {
		return sel, true
	}

	switch {
	case IsAncestorIndexed(id) || id == FieldFdNum:
		n, err := strconv.ParseUint(arg, 10, 32)
		if err != nil {
			log.Warnf("anomaly plugin: dropping %q: non-numeric index %q", tok, arg)
			return Selector{}, false
		}
		v := uint32(n)
		sel.ArgID = &v
	case IsNamedArg(id):
		if arg == "" {
			log.Warnf("anomaly plugin: dropping %q: empty arg name", tok)
			return Selector{}, false
		}
		v := arg
		sel.ArgName = &v
	default:
		log.Warnf("anomaly plugin: dropping %q: selector does not accept an argument", tok)
		return Selector{}, false
	}
	return sel, true
}

// ContainsFdSelector reports whether any selector in profile is fd-dependent.
func ContainsFdSelector(sels []Selector) bool {
	for _, s := range sels {
		if !s.IsLiteral() && IsFdDependent(s.ID) {
			return true
		}
	}
	return false
}

// Join reconstructs the profile string from its parsed selectors, the
// inverse of Parse up to whitespace normalization.
func Join(sels []Selector) string {
	parts := make([]string, len(sels))
	for i, s := range sels {
		parts[i] = s.String()
	}
	return strings.Join(parts, " ")
}
