package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"bookchat/internal/config"
	"bookchat/internal/gateway"
	"bookchat/internal/script"
	"bookchat/internal/topic"
)

type stubRecsSource struct{}

func (stubRecsSource) Lookup(ctx context.Context, slug string) ([]gateway.Item, error) {
	return []gateway.Item{{ItemID: "9781111111111", Locator: "ch01"}}, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.JWTSecret = "api_test_secret"
	cfg.Bot.Name = "SuperFlowBot"
	cfg.Recommend.ItemURL = "https://books.example.com/library/view/_/{itemId}/{locator}"
	return cfg
}

func newTestService(t *testing.T, spec script.TableSpec) *BotService {
	t.Helper()
	table, err := script.Compile(spec)
	if err != nil {
		t.Fatalf("failed to compile script: %v", err)
	}
	return NewBotService(testConfig(), table, topic.Default(), nil, stubRecsSource{}, nil, nil)
}

// fakeAuth stands in for the JWT middleware so handler tests don't need
// redis.
func fakeAuth(conversationID, handle string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("conversationId", conversationID)
		c.Set("handle", handle)
		c.Next()
	}
}

func createConversation(t *testing.T, svc *BotService, handle string) (string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/conversations", svc.CreateConversationHandler())

	body, _ := json.Marshal(map[string]string{"handle": handle})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/conversations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		ConversationID string `json:"conversationId"`
		Token          string `json:"token"`
		Bot            string `json:"bot"`
		Message        string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ConversationID == "" || resp.Token == "" || resp.Message == "" {
		t.Fatalf("incomplete create response: %s", w.Body.String())
	}
	if resp.Bot != "SuperFlowBot" {
		t.Errorf("expected bot name SuperFlowBot, got %q", resp.Bot)
	}
	return resp.ConversationID, resp.Token
}

func TestCreateConversationHandler(t *testing.T) {
	svc := newTestService(t, script.Default())
	id, _ := createConversation(t, svc, "@ajrenold")

	sess, ok := svc.Sessions().Get(id)
	if !ok {
		t.Fatalf("session %s not stored", id)
	}
	if sess.Handle != "ajrenold" {
		t.Errorf("expected handle stripped of @, got %q", sess.Handle)
	}
	if sess.Turn != script.TurnStart {
		t.Errorf("expected new session at start turn, got %d", sess.Turn)
	}
}

func TestCreateConversationHandler_MissingHandle(t *testing.T) {
	svc := newTestService(t, script.Default())
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/conversations", svc.CreateConversationHandler())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/conversations", bytes.NewReader([]byte(`{"handle":"  "}`)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for blank handle, got %d", w.Code)
	}
}

func postMessage(t *testing.T, svc *BotService, id, handle, text string) (int, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/conversations/:id/messages", fakeAuth(id, handle), svc.PostMessageHandler())

	body, _ := json.Marshal(map[string]string{"text": text})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/conversations/"+id+"/messages", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w.Code, resp
}

func TestPostMessageHandler_GreetingAdvancesTurn(t *testing.T) {
	svc := newTestService(t, script.Default())
	id, _ := createConversation(t, svc, "ajrenold")

	code, resp := postMessage(t, svc, id, "ajrenold", "hi sam")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", code, resp)
	}
	msgs, ok := resp["messages"].([]interface{})
	if !ok || len(msgs) == 0 {
		t.Fatalf("expected at least one bot message, got %v", resp["messages"])
	}
	if resp["done"] != false {
		t.Errorf("greeting should not end the conversation")
	}
	if int(resp["turn"].(float64)) != 2 {
		t.Errorf("expected turn 2 after greeting, got %v", resp["turn"])
	}
}

func TestPostMessageHandler_SkipUserBatchesReplies(t *testing.T) {
	svc := newTestService(t, script.Default())
	id, _ := createConversation(t, svc, "ajrenold")

	code, resp := postMessage(t, svc, id, "ajrenold", "hi sam")
	if code != http.StatusOK {
		t.Fatalf("expected 200 for greeting, got %d: %v", code, resp)
	}

	// A negative reply at turn 2 is a skip-user rule: one input must come
	// back as two bot lines, the rebuff and the turn-4 retry, ending back
	// at turn 2 without done being set.
	code, resp = postMessage(t, svc, id, "ajrenold", "no way, python is bad")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", code, resp)
	}
	msgs, ok := resp["messages"].([]interface{})
	if !ok || len(msgs) != 2 {
		t.Fatalf("expected 2 batched bot lines, got %v", resp["messages"])
	}
	if int(resp["turn"].(float64)) != 2 {
		t.Errorf("expected to land back at turn 2, got %v", resp["turn"])
	}
	if resp["done"] != false {
		t.Errorf("skip cycle should not end the conversation")
	}

	// The reused input goes through mention recording once per cycle:
	// "python" is queued twice, then consumed once by the retry's {topic},
	// leaving exactly one copy pending.
	sess, ok := svc.Sessions().Get(id)
	if !ok {
		t.Fatalf("session disappeared mid-conversation")
	}
	pending := sess.Engine.Tracker().Pending()
	if len(pending) != 1 || pending[0] != "python" {
		t.Errorf("pending = %v, want exactly one queued python mention", pending)
	}
	// The greeting already surfaced one random topic; the retry appends
	// the extracted python mention after it.
	asked := sess.Engine.Tracker().Asked()
	if len(asked) != 2 || asked[1] != "python" {
		t.Errorf("asked = %v, want python surfaced second", asked)
	}
}

func TestPostMessageHandler_TerminalTurnDropsSession(t *testing.T) {
	spec := script.TableSpec{
		script.TurnStart: {
			{Pattern: `.*`, Responses: []string{"Bye @{name}!"}, NextTurn: script.TurnEnd},
		},
	}
	svc := newTestService(t, spec)
	id, _ := createConversation(t, svc, "ajrenold")

	code, resp := postMessage(t, svc, id, "ajrenold", "whatever")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", code, resp)
	}
	if resp["done"] != true {
		t.Errorf("expected done=true at terminal turn, got %v", resp["done"])
	}
	if _, ok := svc.Sessions().Get(id); ok {
		t.Errorf("session should be dropped after the conversation ends")
	}
}

func TestPostMessageHandler_UnknownConversation(t *testing.T) {
	svc := newTestService(t, script.Default())
	code, _ := postMessage(t, svc, "no-such-id", "ajrenold", "hi")
	if code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown conversation, got %d", code)
	}
}

func TestPostMessageHandler_MissingText(t *testing.T) {
	svc := newTestService(t, script.Default())
	id, _ := createConversation(t, svc, "ajrenold")

	code, _ := postMessage(t, svc, id, "ajrenold", "")
	if code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty text, got %d", code)
	}
}

func TestEndConversationHandler(t *testing.T) {
	svc := newTestService(t, script.Default())
	id, _ := createConversation(t, svc, "ajrenold")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.DELETE("/api/conversations/:id", fakeAuth(id, "ajrenold"), svc.EndConversationHandler())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("DELETE", "/api/conversations/"+id, nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if _, ok := svc.Sessions().Get(id); ok {
		t.Errorf("session should be gone after delete")
	}
}

func TestTopicsHandler(t *testing.T) {
	svc := newTestService(t, script.Default())
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/topics", svc.TopicsHandler())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/topics", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Topics map[string]string `json:"topics"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode topics: %v", err)
	}
	if resp.Topics["mongo"] != "nosql" {
		t.Errorf("expected mongo to map to nosql, got %q", resp.Topics["mongo"])
	}
}

func TestStatsHandler(t *testing.T) {
	svc := newTestService(t, script.Default())
	createConversation(t, svc, "ajrenold")
	createConversation(t, svc, "someoneelse")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/stats", svc.StatsHandler())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/stats", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Active int `json:"activeConversations"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if resp.Active != 2 {
		t.Errorf("expected 2 active conversations, got %d", resp.Active)
	}
}
