package dialogue

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"bookchat/internal/gateway"
	"bookchat/internal/topic"
)

func newTestResolver(recs RecommendationSource, reg topic.Registry) (*Resolver, *topic.Tracker) {
	rng := rand.New(rand.NewSource(1))
	tracker := topic.NewTracker(reg, rng)
	return NewResolver(reg, tracker, recs, nil, testItemURL, "sam", rng), tracker
}

func TestRender_NameOnly(t *testing.T) {
	r, _ := newTestResolver(nil, topic.Registry{})
	got, err := r.Render(context.Background(), "Thanks @{name}, bye!", "whatever")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != "Thanks @sam, bye!" {
		t.Errorf("Render = %q", got)
	}
}

func TestRender_TopicFromMatchedSpan(t *testing.T) {
	r, tracker := newTestResolver(nil, topic.Registry{"python": "python"})
	got, err := r.Render(context.Background(), "Do you like {topic} books? I love {topic}!", "i enjoy python a lot")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != "Do you like python books? I love python!" {
		t.Errorf("Render = %q", got)
	}
	if r.LastTopic() != "python" {
		t.Errorf("lastTopic = %q", r.LastTopic())
	}
	if asked := tracker.Asked(); len(asked) != 1 {
		t.Errorf("asked = %v, want one entry", asked)
	}
}

func TestRender_RecUsesStickyLastTopic(t *testing.T) {
	recs := &stubRecs{items: []gateway.Item{{ItemID: "111", Locator: "ch02"}}}
	reg := topic.Registry{"mongo": "nosql", "python": "python"}
	r, tracker := newTestResolver(recs, reg)

	// First render extracts a topic and pins it.
	if _, err := r.Render(context.Background(), "how about {topic}?", "tell me about mongo"); err != nil {
		t.Fatalf("topic render failed: %v", err)
	}
	if r.LastTopic() != "mongo" {
		t.Fatalf("lastTopic = %q", r.LastTopic())
	}

	// The later {rec} render must reuse it rather than re-extracting, even
	// though the new span names a different keyword.
	got, err := r.Render(context.Background(), "try {rec}", "python python python")
	if err != nil {
		t.Fatalf("rec render failed: %v", err)
	}
	want := "try https://books.example.com/library/view/_/111/ch02"
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
	if len(tracker.Asked()) != 1 {
		t.Errorf("rec render re-extracted a topic: asked = %v", tracker.Asked())
	}
}

func TestRender_RecExtractsWhenNoLastTopic(t *testing.T) {
	recs := &stubRecs{items: []gateway.Item{{ItemID: "222", Locator: "intro"}}}
	r, tracker := newTestResolver(recs, topic.Registry{"python": "python"})

	got, err := r.Render(context.Background(), "read {rec}", "something about python maybe")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != "read https://books.example.com/library/view/_/222/intro" {
		t.Errorf("Render = %q", got)
	}
	if r.LastTopic() != "python" || len(tracker.Asked()) != 1 {
		t.Errorf("extraction not recorded: lastTopic=%q asked=%v", r.LastTopic(), tracker.Asked())
	}
}

func TestRender_RecFailsWithoutItems(t *testing.T) {
	r, _ := newTestResolver(&stubRecs{}, topic.Registry{"python": "python"})
	_, err := r.Render(context.Background(), "read {rec}", "python")
	if !errors.Is(err, ErrNoRecommendation) {
		t.Fatalf("err = %v, want ErrNoRecommendation", err)
	}
}

func TestRender_RecFailsOnGatewayError(t *testing.T) {
	r, _ := newTestResolver(&stubRecs{err: errors.New("boom")}, topic.Registry{"python": "python"})
	_, err := r.Render(context.Background(), "read {rec}", "python")
	if !errors.Is(err, ErrNoRecommendation) {
		t.Fatalf("err = %v, want ErrNoRecommendation", err)
	}
}

func TestRender_RecFailsWithNilSource(t *testing.T) {
	r, _ := newTestResolver(nil, topic.Registry{"python": "python"})
	_, err := r.Render(context.Background(), "read {rec}", "python")
	if !errors.Is(err, ErrNoRecommendation) {
		t.Fatalf("err = %v, want ErrNoRecommendation", err)
	}
}

func TestRender_SlugMappingForOutboundRequest(t *testing.T) {
	var gotSlug string
	recs := &slugCapturingSource{items: []gateway.Item{{ItemID: "1", Locator: "l"}}, slug: &gotSlug}
	r, _ := newTestResolver(recs, topic.Registry{"mongo": "nosql"})

	if _, err := r.Render(context.Background(), "{rec}", "mongo"); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if gotSlug != "nosql" {
		t.Errorf("outbound slug = %q, want nosql", gotSlug)
	}
}

type slugCapturingSource struct {
	items []gateway.Item
	slug  *string
}

func (s *slugCapturingSource) Lookup(_ context.Context, slug string) ([]gateway.Item, error) {
	*s.slug = slug
	return s.items, nil
}
