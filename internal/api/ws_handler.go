package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"bookchat/internal/auth"
)

// Client frame: one line of user input.
type WSUserMessage struct {
	Text string `json:"text"`
}

// Server frame: one bot line plus the turn it left the conversation at.
type WSBotMessage struct {
	Message string `json:"message"`
	Turn    int    `json:"turn"`
	Done    bool   `json:"done"`
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocket connection wrapper with mutex for thread-safe writes
type safeWSConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *safeWSConn) WriteJSON(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *safeWSConn) ReadMessage() (int, []byte, error) {
	return s.conn.ReadMessage()
}

func (s *safeWSConn) Close() error {
	return s.conn.Close()
}

// GET /ws/converse
//
// The client sends text frames, the server answers each with one or more bot
// frames and closes the socket once the farewell turn is reached.
func (svc *BotService) WSConverseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing JWT"})
			return
		}
		token = strings.TrimPrefix(token, "Bearer ")
		claims, err := auth.ParseJWT(svc.cfg.Server.JWTSecret, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid JWT"})
			return
		}
		sess, ok := svc.sessions.Get(claims.ConversationID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}

		rawConn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Println("WebSocket upgrade failed:", err)
			return
		}
		conn := &safeWSConn{conn: rawConn}
		defer conn.Close()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req WSUserMessage
			if err := json.Unmarshal(msg, &req); err != nil || strings.TrimSpace(req.Text) == "" {
				conn.WriteJSON(map[string]string{"error": "missing text"})
				continue
			}

			sess.Lock()
			if sess.Done {
				sess.Unlock()
				conn.WriteJSON(map[string]string{"error": "conversation has ended"})
				return
			}
			atTurn := sess.Turn
			sess.Recorder.Record("user", atTurn, req.Text)
			replies, done, err := svc.respondCycle(c.Request.Context(), sess, req.Text)
			if err != nil {
				sess.Unlock()
				log.Printf("[API] respond failed for %s at turn %d: %v", sess.ID, atTurn, err)
				conn.WriteJSON(map[string]string{"error": "no applicable rule for input"})
				return
			}
			turn := sess.Turn
			if done {
				svc.endConversation(sess)
			}
			sess.Unlock()

			for i, reply := range replies {
				last := i == len(replies)-1
				conn.WriteJSON(WSBotMessage{Message: reply, Turn: turn, Done: done && last})
			}
			if done {
				return
			}
		}
	}
}
