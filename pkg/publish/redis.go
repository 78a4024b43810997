package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/teslashibe/go-posture/pkg/protocol"
)

const (
	// DefaultStream is the stream events are appended to
	DefaultStream = "posture:events"

	// DefaultSessionPrefix prefixes the per-session state hash
	DefaultSessionPrefix = "posture:session:"

	// DefaultMaxLen caps the stream length (approximate trimming)
	DefaultMaxLen = 10000

	// DefaultSessionTTL expires idle session hashes
	DefaultSessionTTL = 24 * time.Hour
)

// RedisOption configures a RedisStream
type RedisOption func(*RedisStream)

// WithStream sets the event stream key
func WithStream(stream string) RedisOption {
	return func(r *RedisStream) {
		r.stream = stream
	}
}

// WithSessionPrefix sets the session hash key prefix
func WithSessionPrefix(prefix string) RedisOption {
	return func(r *RedisStream) {
		r.sessionPrefix = prefix
	}
}

// WithMaxLen sets the approximate stream cap
func WithMaxLen(n int64) RedisOption {
	return func(r *RedisStream) {
		r.maxLen = n
	}
}

// WithSessionTTL sets the session hash expiry; zero disables it
func WithSessionTTL(d time.Duration) RedisOption {
	return func(r *RedisStream) {
		r.sessionTTL = d
	}
}

// RedisStream appends events to a Redis stream and keeps the latest
// session state in a hash
type RedisStream struct {
	client        *redis.Client
	stream        string
	sessionPrefix string
	maxLen        int64
	sessionTTL    time.Duration
}

// NewRedisStream wraps an existing client
func NewRedisStream(client *redis.Client, opts ...RedisOption) *RedisStream {
	r := &RedisStream{
		client:        client,
		stream:        DefaultStream,
		sessionPrefix: DefaultSessionPrefix,
		maxLen:        DefaultMaxLen,
		sessionTTL:    DefaultSessionTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DialRedis connects to addr and verifies the connection with PING
func DialRedis(ctx context.Context, addr, password string, db int, opts ...RedisOption) (*RedisStream, error) {
	if addr == "" {
		return nil, ErrNotConfigured
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewRedisStream(client, opts...), nil
}

// SessionKey returns the state hash key for a session
func (r *RedisStream) SessionKey(sessionID string) string {
	return r.sessionPrefix + sessionID
}

// PublishEvent appends e to the stream
func (r *RedisStream) PublishEvent(ctx context.Context, e protocol.EventData) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	err = r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		MaxLen: r.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"session_id": e.SessionID,
			"kind":       e.Kind,
			"cue":        e.Cue,
			"display":    e.Display,
			"notice":     e.Notice,
			"text":       e.Text,
			"at":         e.At.UTC().Format(time.RFC3339Nano),
			"data":       string(data),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", r.stream, err)
	}
	return nil
}

// PublishStatus overwrites the session state hash
func (r *RedisStream) PublishStatus(ctx context.Context, st protocol.StatusData) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	key := r.SessionKey(st.SessionID)

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"frame_id":          strconv.FormatUint(st.FrameID, 10),
		"detected":          strconv.FormatBool(st.Detected),
		"bad_posture_count": strconv.Itoa(st.State.BadPostureCount),
		"alert_active":      strconv.FormatBool(st.State.AlertActive),
		"timer":             st.Timer,
		"updated_at":        time.Now().UTC().Format(time.RFC3339Nano),
		"data":              string(data),
	})
	if r.sessionTTL > 0 {
		pipe.Expire(ctx, key, r.sessionTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying client
func (r *RedisStream) Close() error {
	return r.client.Close()
}
