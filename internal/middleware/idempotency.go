package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
	maxIdempotencyKey = 128
)

// ReplayGuard rejects a second POST carrying an Idempotency-Key the same
// business already used. The key is released when the first attempt fails
// so the client can retry it.
type ReplayGuard struct {
	redis  *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

func NewReplayGuard(rdb *redis.Client, logger *zap.Logger) *ReplayGuard {
	return &ReplayGuard{redis: rdb, logger: logger.Named("replay_guard"), ttl: idempotencyTTL}
}

func IdempotencyRedisKey(businessID int64, key string) string {
	return fmt.Sprintf("idempotency:%d:%s", businessID, key)
}

// Middleware must run after the Authenticator. Requests without the header,
// non-POST requests and requests served while Redis is down pass through.
func (g *ReplayGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(IdempotencyHeader)
		if g.redis == nil || r.Method != http.MethodPost || key == "" {
			next.ServeHTTP(w, r)
			return
		}
		if len(key) > maxIdempotencyKey {
			writeError(w, http.StatusBadRequest, "Idempotency-Key is too long")
			return
		}

		businessID, _ := BusinessIDFromContext(r.Context())
		redisKey := IdempotencyRedisKey(businessID, key)

		claimed, err := g.redis.SetNX(r.Context(), redisKey, middleware.GetReqID(r.Context()), g.ttl).Result()
		if err != nil {
			g.logger.Warn("idempotency claim failed", zap.String("key", redisKey), zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		if !claimed {
			writeError(w, http.StatusConflict, "Duplicate request")
			return
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		if ww.Status() >= http.StatusBadRequest {
			if err := g.redis.Del(r.Context(), redisKey).Err(); err != nil {
				g.logger.Warn("idempotency release failed", zap.String("key", redisKey), zap.Error(err))
			}
		}
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
