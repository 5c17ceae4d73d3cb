// Package compose converts between a catalog selection plus free-text comment
// and the single string stored in compound order fields (fault, repair,
// spare parts).
//
// Stored form: "TOKEN1 + TOKEN2 - comment". Decomposition splits on the first
// " - " only, so a comment may itself contain " - " but a token may not.
package compose

import "strings"

const (
	TokenSeparator   = " + "
	CommentSeparator = " - "
)

// Field is the typed form of a compound value.
type Field struct {
	Tokens  []string `json:"tokens"`
	Comment string   `json:"comment"`
}

func (f Field) String() string {
	return Combine(f.Tokens, f.Comment)
}

func (f Field) IsEmpty() bool {
	return len(f.Tokens) == 0 && strings.TrimSpace(f.Comment) == ""
}

// Combine joins the selected tokens and the comment. The separator is only
// written when both sides are present.
func Combine(tokens []string, comment string) string {
	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok = strings.TrimSpace(tok); tok != "" {
			kept = append(kept, tok)
		}
	}
	base := strings.Join(kept, TokenSeparator)
	comment = strings.TrimSpace(comment)

	switch {
	case base == "" && comment == "":
		return ""
	case base == "":
		return comment
	case comment == "":
		return base
	}
	return base + CommentSeparator + comment
}

// Decompose is the inverse of Combine for multi-select fields. Without a
// separator the whole value is read as tokens.
func Decompose(value string) Field {
	v := strings.TrimSpace(value)
	if v == "" {
		return Field{}
	}
	base, comment, found := strings.Cut(v, CommentSeparator)
	if !found {
		return Field{Tokens: SplitTokens(v)}
	}
	return Field{
		Tokens:  SplitTokens(base),
		Comment: strings.TrimSpace(comment),
	}
}

// DecomposeSingle is Decompose for single-select fields: only the first token
// is selected, the others are folded back in front of the comment.
func DecomposeSingle(value string) Field {
	f := Decompose(value)
	if len(f.Tokens) == 0 {
		return f
	}
	rest := strings.Join(f.Tokens[1:], TokenSeparator)
	return Field{
		Tokens:  f.Tokens[:1],
		Comment: joinNonEmpty(CommentSeparator, rest, f.Comment),
	}
}

// SplitTokens splits on "+" and drops blank parts.
func SplitTokens(s string) []string {
	parts := strings.Split(s, "+")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// AppendToken adds a token to a free-text list ("A" + "B" -> "A + B").
func AppendToken(current, token string) string {
	t := strings.TrimSpace(token)
	if t == "" {
		return current
	}
	cur := strings.TrimSpace(current)
	if cur == "" {
		return t
	}
	return cur + TokenSeparator + t
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
