package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"bookchat/internal/gateway"
	"bookchat/internal/topic"
)

// ErrNoRecommendation signals that a {rec} wildcard could not be resolved:
// the gateway had nothing for the topic, or wasn't reachable. The engine
// treats the rule as if its pattern had not matched.
var ErrNoRecommendation = errors.New("dialogue: no recommendation available")

// RecommendationSource yields recommendable items for a topic slug.
// Satisfied by gateway.RecommendClient and recommend.Cache.
type RecommendationSource interface {
	Lookup(ctx context.Context, slug string) ([]gateway.Item, error)
}

// Resolver expands the wildcard tokens of one conversation's response
// templates: {name} is the user's handle, {topic} triggers topic extraction
// from the matched span, {rec} triggers a recommendation lookup. It carries
// the conversation's sticky last-topic, so it lives and dies with a session.
type Resolver struct {
	registry  topic.Registry
	tracker   *topic.Tracker
	recs      RecommendationSource // nil when no service is configured
	titles    *gateway.TitleFetcher
	itemURL   string
	userName  string
	lastTopic string
	rng       *rand.Rand
}

// NewResolver builds a resolver for one conversation. recs and titles may be
// nil; a nil recs makes every {rec} template unresolvable, which the engine's
// fallback policy absorbs. A nil rng gets a time-seeded source.
func NewResolver(registry topic.Registry, tracker *topic.Tracker, recs RecommendationSource, titles *gateway.TitleFetcher, itemURL, userName string, rng *rand.Rand) *Resolver {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Resolver{
		registry: registry,
		tracker:  tracker,
		recs:     recs,
		titles:   titles,
		itemURL:  itemURL,
		userName: userName,
		rng:      rng,
	}
}

// LastTopic returns the most recently selected topic keyword, or "".
func (r *Resolver) LastTopic() string {
	return r.lastTopic
}

// Render expands every wildcard in template, given the span of input text the
// selected rule matched. On an unresolvable {rec} it returns
// ErrNoRecommendation and the caller must not use the partial output.
func (r *Resolver) Render(ctx context.Context, template, matchedSpan string) (string, error) {
	out := strings.ReplaceAll(template, "{name}", r.userName)

	if strings.Contains(out, "{topic}") {
		picked := r.tracker.Extract(matchedSpan)
		r.lastTopic = picked
		out = strings.ReplaceAll(out, "{topic}", picked)
	}

	if strings.Contains(out, "{rec}") {
		ref, err := r.recommendation(ctx, matchedSpan)
		if err != nil {
			return "", err
		}
		out = strings.ReplaceAll(out, "{rec}", ref)
	}

	return out, nil
}

// recommendation resolves a {rec} token. The sticky last topic is reused when
// set; otherwise a topic is extracted first from the matched span. The topic
// keyword maps through the registry to its outbound slug before the lookup.
func (r *Resolver) recommendation(ctx context.Context, matchedSpan string) (string, error) {
	if r.recs == nil {
		return "", ErrNoRecommendation
	}

	keyword := r.lastTopic
	if keyword == "" {
		keyword = r.tracker.Extract(matchedSpan)
		r.lastTopic = keyword
	}

	slug, ok := r.registry.Slug(keyword)
	if !ok {
		slug = keyword
	}

	items, err := r.recs.Lookup(ctx, slug)
	if err != nil {
		log.Printf("[Dialogue] recommendation lookup for %q failed: %v", slug, err)
		return "", ErrNoRecommendation
	}
	if len(items) == 0 {
		return "", ErrNoRecommendation
	}

	item := items[r.rng.Intn(len(items))]
	return r.reference(ctx, item), nil
}

// reference formats an item into the user-facing string: the configured item
// URL, prefixed with the page title when one can be fetched.
func (r *Resolver) reference(ctx context.Context, item gateway.Item) string {
	ref := strings.NewReplacer("{itemId}", item.ItemID, "{locator}", item.Locator).Replace(r.itemURL)
	if r.titles != nil {
		if title, err := r.titles.Title(ctx, ref); err == nil {
			return fmt.Sprintf("%s (%s)", title, ref)
		}
	}
	return ref
}
