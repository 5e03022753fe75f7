package rule

import (
	"strconv"
	"strings"

	"github.com/halcyon-dev/telecore/dctx"
	"github.com/halcyon-dev/telecore/update"
)

// Text matches a Message whose text is exactly want.
func Text(want string) Rule {
	return NewFunc("text:"+want, func(m *update.Message) bool {
		return m != nil && m.Text == want
	})
}

// HasPrefix matches a Message whose text starts with prefix, e.g. a "/start"
// command rule built as HasPrefix("/start").
func HasPrefix(prefix string) Rule {
	return NewFunc("prefix:"+prefix, func(m *update.Message) bool {
		return m != nil && strings.HasPrefix(m.Text, prefix)
	})
}

// IsPrivate matches a Message whose chat is a private 1:1 chat; other
// update kinds never match.
func IsPrivate() Rule {
	return NewFunc("is_private", func(m *update.Message) bool {
		return m != nil && m.Chat.Type == "private"
	})
}

// ArgKind names how a Command argument's raw token is parsed before it's
// written to the Context under its Argument name (spec.md §8 scenario 5).
type ArgKind int

const (
	// String keeps the token as-is.
	String ArgKind = iota
	// Int parses the token with strconv.Atoi; a non-numeric token is a
	// clean non-match for the whole Command, not an error.
	Int
)

// ArgSpec is one positional parameter a Command rule expects after its
// name, e.g. Argument("x", Int).
type ArgSpec struct {
	Name string
	Kind ArgKind
}

// Argument builds an ArgSpec.
func Argument(name string, kind ArgKind) ArgSpec {
	return ArgSpec{Name: name, Kind: kind}
}

// Command matches a Message whose text is "/name" followed by exactly
// len(args) whitespace-separated tokens, parsing and writing each into the
// Context under its argument name on success — the context-merge half of
// spec.md §4.3 step 6, reused by handlers via Context.Get rather than by
// typed parameter binding (internal/magic binds by Go type, not name; a
// Command's arguments are named at registration time, so the Context is the
// natural hand-off point). A parse failure (wrong token count, a non-Int
// token for an Int argument) is a clean non-match, never an error.
func Command(name string, args ...ArgSpec) Rule {
	prefix := "/" + name
	return NewFunc("command:"+name, func(m *update.Message, ctx *dctx.Context) bool {
		if m == nil || (m.Text != prefix && !strings.HasPrefix(m.Text, prefix+" ")) {
			return false
		}
		rest := strings.TrimSpace(strings.TrimPrefix(m.Text, prefix))
		var tokens []string
		if rest != "" {
			tokens = strings.Fields(rest)
		}
		if len(tokens) != len(args) {
			return false
		}
		for i, spec := range args {
			switch spec.Kind {
			case Int:
				n, err := strconv.Atoi(tokens[i])
				if err != nil {
					return false
				}
				ctx.Set(spec.Name, n)
			default:
				ctx.Set(spec.Name, tokens[i])
			}
		}
		return true
	})
}
