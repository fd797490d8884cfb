// Package script holds the conversation script: the turn table that drives
// the dialogue engine. The script is data, not code — it can be replaced from
// a file without touching the engine.
package script

import "regexp"

// Reserved turn identifiers.
const (
	TurnEnd      = -1 // conversation over, caller stops the loop
	TurnFarewell = 0  // says goodbye, always transitions to TurnEnd
	TurnStart    = 1  // initial turn and the engine's only fallback target
)

// RuleSpec is one uncompiled dispatch rule inside a turn.
type RuleSpec struct {
	Pattern   string   `yaml:"pattern" json:"pattern"`
	Responses []string `yaml:"responses" json:"responses"`
	NextTurn  int      `yaml:"next_turn" json:"next_turn"`
	SkipUser  bool     `yaml:"skip_user" json:"skip_user"`
}

// TableSpec maps a turn id to its ordered rule list. Order matters:
// evaluation is first-match-wins, so a rule placed after a catch-all in the
// same turn is unreachable. That is a script hazard, not something the
// engine corrects.
type TableSpec map[int][]RuleSpec

// Rule is a compiled rule. The pattern is a case-insensitive prefix matcher:
// it only has to match a leading span of the input, a trailing remainder is
// accepted.
type Rule struct {
	pattern   *regexp.Regexp
	source    string
	Responses []string
	NextTurn  int
	SkipUser  bool
}

// Match tests the rule against input and returns the matched leading span.
func (r *Rule) Match(input string) (string, bool) {
	loc := r.pattern.FindStringIndex(input)
	if loc == nil {
		return "", false
	}
	return input[loc[0]:loc[1]], true
}

// Pattern returns the rule's original pattern source.
func (r *Rule) Pattern() string {
	return r.source
}

// Table is a compiled turn table.
type Table map[int][]Rule
