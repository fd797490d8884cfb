package api

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"bookchat/internal/auth"
	"bookchat/internal/config"
	"bookchat/internal/db"
	"bookchat/internal/dialogue"
	"bookchat/internal/gateway"
	"bookchat/internal/script"
	"bookchat/internal/topic"
	"bookchat/internal/transcript"
)

const sessionTTL = 30 * time.Minute

// BotService bundles everything a conversation needs: the compiled script,
// the topic registry and the outbound gateways. One instance serves all
// conversations; per-conversation state lives in the session store.
type BotService struct {
	cfg      *config.Config
	table    script.Table
	registry topic.Registry
	history  topic.HistorySource           // nil when no history service is configured
	recs     dialogue.RecommendationSource // nil when no recommendation service is configured
	titles   *gateway.TitleFetcher
	sessions *SessionStore
	rdb      *redis.Client
}

func NewBotService(cfg *config.Config, table script.Table, registry topic.Registry,
	history topic.HistorySource, recs dialogue.RecommendationSource,
	titles *gateway.TitleFetcher, rdb *redis.Client) *BotService {
	return &BotService{
		cfg:      cfg,
		table:    table,
		registry: registry,
		history:  history,
		recs:     recs,
		titles:   titles,
		sessions: NewSessionStore(),
		rdb:      rdb,
	}
}

func (svc *BotService) Sessions() *SessionStore {
	return svc.sessions
}

var openers = []string{
	"Hello @%s! Say hi and let's talk books.",
	"Hey @%s, I'm full of reading ideas. Say hello!",
	"@%s greetings! Ask me about books whenever you're ready.",
}

// POST /api/conversations
func (svc *BotService) CreateConversationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Handle string `json:"handle"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		handle := strings.TrimPrefix(strings.TrimSpace(req.Handle), "@")
		if handle == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing handle"})
			return
		}

		tracker := topic.NewTracker(svc.registry, nil)
		if svc.history != nil {
			tracker.SeedFromHistory(c.Request.Context(), handle, svc.history)
		}
		resolver := dialogue.NewResolver(svc.registry, tracker, svc.recs, svc.titles,
			svc.cfg.Recommend.ItemURL, handle, nil)
		engine := dialogue.NewEngine(svc.table, tracker, resolver, nil)

		var recorder *transcript.Recorder
		if db.DB != nil {
			var err error
			recorder, err = transcript.StartRecorder(db.DB, handle, svc.cfg.BotName())
			if err != nil {
				log.Printf("[API] failed to open transcript for %q: %v", handle, err)
				recorder = nil
			}
		}

		id := recorder.ConversationID()
		if id == "" {
			id = uuid.New().String()
		}

		token, err := auth.GenerateJWT(svc.cfg.Server.JWTSecret, id, handle, 24*time.Hour)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create token"})
			return
		}
		if svc.rdb != nil {
			if err := auth.SetSession(svc.rdb, id, token, sessionTTL); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
				return
			}
		}

		sess := &Session{
			ID:       id,
			Handle:   handle,
			Engine:   engine,
			Recorder: recorder,
			Turn:     script.TurnStart,
		}
		svc.sessions.Put(sess)

		opening := fmt.Sprintf(openers[rand.Intn(len(openers))], handle)
		recorder.Record("bot", script.TurnStart, opening)

		c.JSON(http.StatusCreated, gin.H{
			"conversationId": id,
			"token":          token,
			"bot":            svc.cfg.BotName(),
			"message":        opening,
		})
	}
}

// respondCycle runs the engine on one user input, following skip-user
// transitions so every bot line the input produces comes back in one batch.
// The caller must hold the session lock.
func (svc *BotService) respondCycle(ctx context.Context, sess *Session, input string) ([]string, bool, error) {
	var replies []string
	for {
		atTurn := sess.Turn
		reply, next, skip, err := sess.Engine.Respond(ctx, input, sess.Turn)
		if err != nil {
			return replies, false, err
		}
		sess.Turn = next
		replies = append(replies, reply)
		sess.Recorder.Record("bot", atTurn, reply)
		if next == script.TurnEnd {
			sess.Done = true
			return replies, true, nil
		}
		if !skip {
			return replies, false, nil
		}
	}
}

// endConversation closes the transcript and drops all session state.
func (svc *BotService) endConversation(sess *Session) {
	sess.Recorder.Close(sess.Engine.Tracker().Asked())
	svc.sessions.Delete(sess.ID)
	if svc.rdb != nil {
		if err := auth.DeleteSession(svc.rdb, sess.ID); err != nil {
			log.Printf("[API] failed to delete session %s: %v", sess.ID, err)
		}
	}
}

// POST /api/conversations/:id/messages
func (svc *BotService) PostMessageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := c.GetString("conversationId")
		if id := c.Param("id"); id != conversationID {
			c.JSON(http.StatusForbidden, gin.H{"error": "token does not match conversation"})
			return
		}
		sess, ok := svc.sessions.Get(conversationID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}

		var req struct {
			Text string `json:"text"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing text"})
			return
		}

		sess.Lock()
		defer sess.Unlock()
		if sess.Done {
			c.JSON(http.StatusGone, gin.H{"error": "conversation has ended"})
			return
		}

		atTurn := sess.Turn
		sess.Recorder.Record("user", atTurn, req.Text)

		replies, done, err := svc.respondCycle(c.Request.Context(), sess, req.Text)
		if err != nil {
			log.Printf("[API] respond failed for %s at turn %d: %v", conversationID, atTurn, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no applicable rule for input"})
			return
		}
		if done {
			svc.endConversation(sess)
		}

		c.JSON(http.StatusOK, gin.H{
			"messages": replies,
			"turn":     sess.Turn,
			"done":     done,
		})
	}
}

// DELETE /api/conversations/:id
func (svc *BotService) EndConversationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := c.GetString("conversationId")
		if id := c.Param("id"); id != conversationID {
			c.JSON(http.StatusForbidden, gin.H{"error": "token does not match conversation"})
			return
		}
		sess, ok := svc.sessions.Get(conversationID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		sess.Lock()
		defer sess.Unlock()
		svc.endConversation(sess)
		c.JSON(http.StatusOK, gin.H{"message": "conversation ended"})
	}
}

// GET /api/topics
func (svc *BotService) TopicsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"topics": svc.registry})
	}
}

// GET /api/stats
func (svc *BotService) StatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		out := gin.H{"activeConversations": svc.sessions.Count()}
		if svc.rdb != nil {
			if n, err := auth.ActiveConversationCount(svc.rdb); err == nil {
				out["liveSessions"] = n
			}
		}
		c.JSON(http.StatusOK, out)
	}
}

// GET /healthz
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// GET /config
func configHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Only return non-sensitive config fields
		c.JSON(http.StatusOK, gin.H{
			"server": gin.H{
				"host":    cfg.Server.Host,
				"port":    cfg.Server.Port,
				"subpath": cfg.Server.Subpath,
			},
			"bot": gin.H{
				"name": cfg.BotName(),
			},
		})
	}
}
