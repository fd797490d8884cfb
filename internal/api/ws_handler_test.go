package api

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"bookchat/internal/auth"
	"bookchat/internal/script"
)

func dialConverse(t *testing.T, svc *BotService, token string) (*websocket.Conn, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/converse", svc.WSConverseHandler())

	s := httptest.NewServer(r)
	wsURL := "ws" + s.URL[4:] + "/ws/converse?token=" + token
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		s.Close()
		t.Fatalf("WebSocket dial failed: %v", err)
	}
	return ws, func() {
		ws.Close()
		s.Close()
	}
}

func TestWSConverseHandler_Exchange(t *testing.T) {
	svc := newTestService(t, script.Default())
	id, token := createConversation(t, svc, "ajrenold")

	ws, done := dialConverse(t, svc, token)
	defer done()

	payload, _ := json.Marshal(WSUserMessage{Text: "hi sam"})
	if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("WebSocket write failed: %v", err)
	}

	var resp WSBotMessage
	if err := ws.ReadJSON(&resp); err != nil {
		t.Fatalf("WebSocket read failed: %v", err)
	}
	if resp.Message == "" {
		t.Errorf("expected a bot line, got empty message")
	}
	if resp.Turn != 2 {
		t.Errorf("expected turn 2 after greeting, got %d", resp.Turn)
	}
	if resp.Done {
		t.Errorf("greeting should not end the conversation")
	}

	sess, ok := svc.Sessions().Get(id)
	if !ok {
		t.Fatalf("session disappeared mid-conversation")
	}
	if sess.Turn != 2 {
		t.Errorf("expected session at turn 2, got %d", sess.Turn)
	}
}

func TestWSConverseHandler_TerminalTurnClosesSocket(t *testing.T) {
	spec := script.TableSpec{
		script.TurnStart: {
			{Pattern: `.*`, Responses: []string{"Bye @{name}!"}, NextTurn: script.TurnEnd},
		},
	}
	svc := newTestService(t, spec)
	id, token := createConversation(t, svc, "ajrenold")

	ws, done := dialConverse(t, svc, token)
	defer done()

	payload, _ := json.Marshal(WSUserMessage{Text: "anything"})
	if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("WebSocket write failed: %v", err)
	}

	var resp WSBotMessage
	if err := ws.ReadJSON(&resp); err != nil {
		t.Fatalf("WebSocket read failed: %v", err)
	}
	if !resp.Done {
		t.Errorf("expected done=true on the farewell frame")
	}
	if _, ok := svc.Sessions().Get(id); ok {
		t.Errorf("session should be dropped after the conversation ends")
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := ws.ReadMessage(); err == nil {
		t.Errorf("expected the server to close the socket after the farewell")
	}
}

func TestWSConverseHandler_BadToken(t *testing.T) {
	svc := newTestService(t, script.Default())

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/converse", svc.WSConverseHandler())
	s := httptest.NewServer(r)
	defer s.Close()

	wsURL := "ws" + s.URL[4:] + "/ws/converse?token=not.a.token"
	if _, _, err := websocket.DefaultDialer.Dial(wsURL, nil); err == nil {
		t.Errorf("expected dial to fail with an invalid token")
	}
}

func TestWSConverseHandler_UnknownConversation(t *testing.T) {
	svc := newTestService(t, script.Default())

	token, err := auth.GenerateJWT(testConfig().Server.JWTSecret, "no-such-id", "ajrenold", time.Hour)
	if err != nil {
		t.Fatalf("failed to generate JWT: %v", err)
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/converse", svc.WSConverseHandler())
	s := httptest.NewServer(r)
	defer s.Close()

	wsURL := "ws" + s.URL[4:] + "/ws/converse?token=" + token
	if _, _, err := websocket.DefaultDialer.Dial(wsURL, nil); err == nil {
		t.Errorf("expected dial to fail for an unknown conversation")
	}
}
