package script

import (
	"fmt"
	"regexp"
)

// Compile turns a raw table spec into matchable rules. Patterns are compiled
// case-insensitively and anchored to the start of the input, mirroring
// prefix-match dispatch. Any invalid pattern or empty response set is a
// configuration error and fails the whole load — the engine cannot run with
// a malformed script.
func Compile(spec TableSpec) (Table, error) {
	if len(spec[TurnStart]) == 0 {
		return nil, fmt.Errorf("script: turn %d must exist with at least one rule (fallback target)", TurnStart)
	}

	table := make(Table, len(spec))
	for turn, rules := range spec {
		compiled := make([]Rule, 0, len(rules))
		for i, rs := range rules {
			if len(rs.Responses) == 0 {
				return nil, fmt.Errorf("script: turn %d rule %d has no responses", turn, i)
			}
			re, err := regexp.Compile(`(?i)\A(?:` + rs.Pattern + `)`)
			if err != nil {
				return nil, fmt.Errorf("script: turn %d rule %d: invalid pattern %q: %w", turn, i, rs.Pattern, err)
			}
			compiled = append(compiled, Rule{
				pattern:   re,
				source:    rs.Pattern,
				Responses: rs.Responses,
				NextTurn:  rs.NextTurn,
				SkipUser:  rs.SkipUser,
			})
		}
		table[turn] = compiled
	}
	return table, nil
}
