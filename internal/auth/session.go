package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyFmt = "session:%s"

func SetSession(rdb *redis.Client, conversationID, token string, duration time.Duration) error {
	ctx := context.Background()
	key := fmt.Sprintf(sessionKeyFmt, conversationID)
	return rdb.Set(ctx, key, token, duration).Err()
}

func GetSession(rdb *redis.Client, conversationID string) (string, error) {
	ctx := context.Background()
	key := fmt.Sprintf(sessionKeyFmt, conversationID)
	return rdb.Get(ctx, key).Result()
}

func DeleteSession(rdb *redis.Client, conversationID string) error {
	ctx := context.Background()
	key := fmt.Sprintf(sessionKeyFmt, conversationID)
	return rdb.Del(ctx, key).Err()
}

// ActiveConversationCount returns the number of conversations with a live
// session record.
func ActiveConversationCount(rdb *redis.Client) (int, error) {
	ctx := context.Background()
	var cursor uint64
	ids := make(map[string]struct{})
	for {
		keys, newCursor, err := rdb.Scan(ctx, cursor, "session:*", 100).Result()
		if err != nil {
			return 0, err
		}
		for _, key := range keys {
			parts := strings.SplitN(key, ":", 2)
			if len(parts) == 2 && parts[1] != "" {
				ids[parts[1]] = struct{}{}
			}
		}
		if newCursor == 0 {
			break
		}
		cursor = newCursor
	}
	return len(ids), nil
}
