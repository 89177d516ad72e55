package scanning

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lazyvibe/codescan/internal/model"
)

// AcceptAll accepts every payload.
func AcceptAll(string) bool { return true }

// MatchExact accepts only want.
func MatchExact(want string) model.ValidityPredicate {
	return func(payload string) bool {
		return payload == want
	}
}

// MatchPrefix accepts payloads starting with prefix.
func MatchPrefix(prefix string) model.ValidityPredicate {
	return func(payload string) bool {
		return strings.HasPrefix(payload, prefix)
	}
}

// MatchRegexp accepts payloads that pattern matches in full; a match on
// part of the payload is not enough. An empty pattern accepts everything.
func MatchRegexp(pattern string) (model.ValidityPredicate, error) {
	if pattern == "" {
		return AcceptAll, nil
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("invalid accept pattern: %w", err)
	}
	return re.MatchString, nil
}
