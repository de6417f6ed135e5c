package searcher

import (
	"fmt"
	"strings"

	"github.com/dshills/coderag/pkg/types"
)

// Mode selects how a query is answered
type Mode string

const (
	ModeSemantic Mode = "semantic" // cosine similarity over embeddings
	ModeLexical  Mode = "lexical"  // keyword occurrence count
)

// Trigger is the prefix token that marks a lexical query, as in
// "grep: ParseFile". The token is matched case-insensitively.
const Trigger = "grep"

// ParseMode converts a user supplied mode name. "grep" and "keyword" are
// accepted as aliases of lexical; an empty name means semantic.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModeSemantic), "vector":
		return ModeSemantic, nil
	case string(ModeLexical), Trigger, "keyword":
		return ModeLexical, nil
	default:
		return "", fmt.Errorf("unsupported search mode: %s", s)
	}
}

// Query is a parsed retrieval request. Text is the full query for
// semantic mode and the bare keyword for lexical mode.
type Query struct {
	Mode Mode
	Text string
}

// ParseQuery turns raw user input into a Query. Lexical mode applies only
// when it is requested and raw carries the trigger prefix; a lexical
// request without the prefix is answered semantically with the whole
// input.
func ParseQuery(raw string, requested Mode) (Query, error) {
	text := strings.TrimSpace(raw)

	if requested == ModeLexical {
		if keyword, ok := cutTrigger(text); ok {
			if keyword == "" {
				return Query{}, fmt.Errorf("%w: no keyword after %s:", types.ErrEmptyQuery, Trigger)
			}
			return Query{Mode: ModeLexical, Text: keyword}, nil
		}
	}

	if text == "" {
		return Query{}, types.ErrEmptyQuery
	}
	return Query{Mode: ModeSemantic, Text: text}, nil
}

func cutTrigger(s string) (string, bool) {
	prefix := Trigger + ":"
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(s[len(prefix):]), true
}

func (q Query) String() string {
	if q.Mode == ModeLexical {
		return Trigger + ": " + q.Text
	}
	return q.Text
}
