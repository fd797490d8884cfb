// Package dialogue implements the pattern-driven conversation state machine:
// per-turn rule evaluation with first-match-wins ordering, wildcard template
// expansion, and the single retry-at-turn-1 fallback.
package dialogue

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"time"

	"bookchat/internal/script"
	"bookchat/internal/topic"
)

// ErrNoMatchingRule means no rule matched anywhere, including the start
// turn's catch-all. That is a turn-table invariant violation — a broken
// script — not a runtime condition to retry.
var ErrNoMatchingRule = errors.New("dialogue: no rule matched; the script has no usable fallback at the start turn")

// Engine drives one conversation through the turn table. It owns the
// session's topic tracker and wildcard resolver and must not be shared
// between conversations or used concurrently.
type Engine struct {
	table    script.Table
	tracker  *topic.Tracker
	resolver *Resolver
	rng      *rand.Rand
}

// NewEngine creates an engine over a compiled table. A nil rng gets a
// time-seeded source.
func NewEngine(table script.Table, tracker *topic.Tracker, resolver *Resolver, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{table: table, tracker: tracker, resolver: resolver, rng: rng}
}

// Tracker exposes the session's topic tracker, e.g. for history seeding and
// transcript finalization.
func (e *Engine) Tracker() *topic.Tracker {
	return e.tracker
}

// Respond evaluates one user input against the given turn and returns the
// rendered response, the next turn id, and whether the caller should reuse
// this input for the next cycle instead of prompting again.
//
// Mention recording happens exactly once per call, before any rule is tried.
// Rules are tested strictly in table order; the first whose pattern matches
// and whose template renders wins. A matching rule whose wildcards cannot be
// resolved is skipped as if it had not matched. When a turn is exhausted the
// engine retries once at the start turn; if that also yields nothing the
// table invariant is broken and ErrNoMatchingRule is returned.
func (e *Engine) Respond(ctx context.Context, userInput string, turn int) (string, int, bool, error) {
	e.tracker.AddMentions(userInput)

	for {
		for i := range e.table[turn] {
			rule := &e.table[turn][i]
			span, ok := rule.Match(userInput)
			if !ok {
				continue
			}
			template := rule.Responses[e.rng.Intn(len(rule.Responses))]
			text, err := e.resolver.Render(ctx, template, span)
			if err != nil {
				log.Printf("[Dialogue] turn %d rule %d matched but did not render: %v", turn, i, err)
				continue
			}
			return text, rule.NextTurn, rule.SkipUser, nil
		}
		if turn == script.TurnStart {
			return "", turn, false, ErrNoMatchingRule
		}
		turn = script.TurnStart
	}
}
