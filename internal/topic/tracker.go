package topic

import (
	"context"
	"log"
	"math/rand"
	"time"
)

// HistorySource reports which of the candidate keywords appear in a user's
// recent post history. Implemented by gateway.HistoryClient.
type HistorySource interface {
	Lookup(ctx context.Context, handle string, candidates []string) ([]string, error)
}

// Tracker owns one conversation's topic state: keyword mentions discovered
// but not yet surfaced, and the history of every topic asked about. It is
// not safe for concurrent use; each conversation gets its own Tracker.
type Tracker struct {
	registry Registry
	pending  []string
	asked    []string
	rng      *rand.Rand
}

// NewTracker creates a tracker over the given registry. A nil rng gets a
// time-seeded source; tests inject a fixed seed.
func NewTracker(registry Registry, rng *rand.Rand) *Tracker {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Tracker{registry: registry, rng: rng}
}

// AddMentions scans free text and queues every token that is a registry
// keyword. Duplicates are queued again; the pending list is not a set.
func (t *Tracker) AddMentions(freeText string) {
	for _, word := range Tokenize(freeText) {
		if _, ok := t.registry[word]; ok {
			t.pending = append(t.pending, word)
		}
	}
}

// SeedFromHistory asks the history source which registry keywords appear in
// the user's post history and queues them. Best effort: a gateway failure is
// logged and the conversation proceeds with nothing pre-seeded.
func (t *Tracker) SeedFromHistory(ctx context.Context, handle string, src HistorySource) {
	if src == nil {
		return
	}
	matches, err := src.Lookup(ctx, handle, t.registry.Keywords())
	if err != nil {
		log.Printf("[Topic] history lookup for %q failed: %v", handle, err)
		return
	}
	t.pending = append(t.pending, matches...)
}

// Extract picks the topic to surface next, given the text span the current
// rule matched. Priority: a keyword present in the span, else a queued
// mention, else any registry keyword — each picked uniformly at random from
// its pool. A pick that sits in the pending queue is consumed from it exactly
// once. Every pick is appended to the asked history. With an empty registry
// and nothing queued there is nothing to pick; Extract returns "".
func (t *Tracker) Extract(matchedSpan string) string {
	var inSpan []string
	for _, word := range Tokenize(matchedSpan) {
		if _, ok := t.registry[word]; ok {
			inSpan = append(inSpan, word)
		}
	}

	var pick string
	switch {
	case len(inSpan) > 0:
		pick = inSpan[t.rng.Intn(len(inSpan))]
	case len(t.pending) > 0:
		pick = t.pending[t.rng.Intn(len(t.pending))]
	default:
		keys := t.registry.Keywords()
		if len(keys) == 0 {
			return ""
		}
		pick = keys[t.rng.Intn(len(keys))]
	}

	t.consumePending(pick)
	t.asked = append(t.asked, pick)
	return pick
}

// consumePending removes the first queued occurrence of keyword, if any.
func (t *Tracker) consumePending(keyword string) {
	for i, p := range t.pending {
		if p == keyword {
			t.pending = append(t.pending[:i], t.pending[i+1:]...)
			return
		}
	}
}

// Pending returns a copy of the unconsumed mention queue.
func (t *Tracker) Pending() []string {
	out := make([]string, len(t.pending))
	copy(out, t.pending)
	return out
}

// Asked returns a copy of every topic surfaced so far, in order.
func (t *Tracker) Asked() []string {
	out := make([]string, len(t.asked))
	copy(out, t.asked)
	return out
}
