package resolver

import "strings"

// NeutralCulture is the culture value of non-localized modules.
const NeutralCulture = "neutral"

// Identifier is a parsed module identifier: either Parsed or Bare.
type Identifier interface {
	// String returns the identifier text.
	String() string
	isIdentifier()
}

// Parsed is an identifier matching
// "<name>, Version=<version>, Culture=<culture>, PublicKeyToken=<token>".
type Parsed struct {
	Name           string
	Version        string
	Culture        string
	PublicKeyToken string
}

// IsNeutral reports whether the identifier names the non-localized module.
func (p Parsed) IsNeutral() bool {
	return p.Culture == NeutralCulture
}

func (p Parsed) String() string {
	return p.Name + ", Version=" + p.Version + ", Culture=" + p.Culture + ", PublicKeyToken=" + p.PublicKeyToken
}

func (Parsed) isIdentifier() {}

// Bare is an identifier that does not match the full grammar. Its text is
// used as the file name stem.
type Bare struct {
	Text string
}

func (b Bare) String() string {
	return b.Text
}

func (Bare) isIdentifier() {}

// separators of the identifier grammar, in order.
var separators = []string{", Version=", ", Culture=", ", PublicKeyToken="}

// ParseIdentifier parses s against the identifier grammar. Text that does
// not match is returned as Bare.
//
// Each field is the shortest non-empty text that still lets the remainder
// match, so a field may itself contain a later separator.
func ParseIdentifier(s string) Identifier {
	fields, ok := splitFields(s, separators)
	if !ok {
		return Bare{Text: s}
	}
	return Parsed{
		Name:           fields[0],
		Version:        fields[1],
		Culture:        fields[2],
		PublicKeyToken: fields[3],
	}
}

// splitFields splits s at seps in order. Every field must be non-empty and
// free of line breaks. Later occurrences of a separator are tried when an
// earlier split leaves a remainder that does not match.
func splitFields(s string, seps []string) ([]string, bool) {
	if len(seps) == 0 {
		if s == "" || strings.ContainsAny(s, "\r\n") {
			return nil, false
		}
		return []string{s}, true
	}

	sep := seps[0]
	// Start at 1: the field before the separator must be non-empty.
	for from := 1; from < len(s); {
		i := strings.Index(s[from:], sep)
		if i < 0 {
			return nil, false
		}
		i += from

		head := s[:i]
		if strings.ContainsAny(head, "\r\n") {
			return nil, false
		}
		if rest, ok := splitFields(s[i+len(sep):], seps[1:]); ok {
			return append([]string{head}, rest...), true
		}
		from = i + 1
	}
	return nil, false
}
