// Package transcript archives finished and in-flight conversations. It is an
// audit log only: the dialogue engine never reads it back, and session state
// does not survive a restart.
package transcript

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Conversation struct {
	ID          string         `json:"id" gorm:"primaryKey;size:36"`
	Handle      string         `json:"handle" gorm:"size:64;index"`
	BotName     string         `json:"bot_name" gorm:"size:64"`
	AskedTopics datatypes.JSON `json:"asked_topics"`
	StartedAt   time.Time      `json:"startedAt"`
	EndedAt     *time.Time     `json:"endedAt"`
	Messages    []Message      `json:"-" gorm:"foreignKey:ConversationID"`
}

type Message struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ConversationID string    `json:"conversation_id" gorm:"size:36;index"`
	Sender         string    `json:"sender" gorm:"size:64"` // user handle or bot name
	Turn           int       `json:"turn"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Recorder appends one conversation's messages as it proceeds. All methods
// are best effort and nil-safe: with no database configured the recorder is
// nil and every call is a no-op.
type Recorder struct {
	db     *gorm.DB
	convID string
}

// StartRecorder opens a conversation record and returns its recorder.
func StartRecorder(dbConn *gorm.DB, handle, botName string) (*Recorder, error) {
	conv := Conversation{
		ID:        uuid.New().String(),
		Handle:    handle,
		BotName:   botName,
		StartedAt: time.Now(),
	}
	if err := dbConn.Create(&conv).Error; err != nil {
		return nil, err
	}
	return &Recorder{db: dbConn, convID: conv.ID}, nil
}

// ConversationID returns the archived conversation's id, or "".
func (r *Recorder) ConversationID() string {
	if r == nil {
		return ""
	}
	return r.convID
}

// Record appends one message. Failures are logged, never propagated: losing
// a transcript line must not break the conversation.
func (r *Recorder) Record(sender string, turn int, content string) {
	if r == nil {
		return
	}
	msg := Message{
		ConversationID: r.convID,
		Sender:         sender,
		Turn:           turn,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	if err := r.db.Create(&msg).Error; err != nil {
		log.Printf("[Transcript] failed to record message for %s: %v", r.convID, err)
	}
}

// Close stamps the end time and stores the final asked-topic list.
func (r *Recorder) Close(askedTopics []string) {
	if r == nil {
		return
	}
	asked, err := json.Marshal(askedTopics)
	if err != nil {
		asked = []byte("[]")
	}
	now := time.Now()
	updates := map[string]interface{}{
		"asked_topics": datatypes.JSON(asked),
		"ended_at":     &now,
	}
	if err := r.db.Model(&Conversation{}).Where("id = ?", r.convID).Updates(updates).Error; err != nil {
		log.Printf("[Transcript] failed to close conversation %s: %v", r.convID, err)
	}
}
