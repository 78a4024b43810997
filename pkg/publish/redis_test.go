package publish

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-posture/pkg/protocol"
)

func setupTestRedis(t *testing.T, opts ...RedisOption) (*miniredis.Miniredis, *redis.Client, *RedisStream) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	return mr, client, NewRedisStream(client, opts...)
}

func TestRedisStream_PublishEvent(t *testing.T) {
	_, client, sink := setupTestRedis(t)
	ctx := context.Background()

	at := time.Date(2024, 3, 1, 9, 0, 7, 0, time.UTC)
	err := sink.PublishEvent(ctx, protocol.EventData{
		SessionID: "s1",
		Kind:      "sound",
		Cue:       "BAD_POSTURE_SHORT",
		At:        at,
	})
	require.NoError(t, err)

	msgs, err := client.XRange(ctx, DefaultStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	values := msgs[0].Values
	assert.Equal(t, "s1", values["session_id"])
	assert.Equal(t, "sound", values["kind"])
	assert.Equal(t, "BAD_POSTURE_SHORT", values["cue"])
	assert.Equal(t, "2024-03-01T09:00:07Z", values["at"])

	var decoded protocol.EventData
	require.NoError(t, json.Unmarshal([]byte(values["data"].(string)), &decoded))
	assert.True(t, decoded.At.Equal(at))
}

func TestRedisStream_TrimsStream(t *testing.T) {
	_, client, sink := setupTestRedis(t, WithStream("test:events"), WithMaxLen(5))
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		require.NoError(t, sink.PublishEvent(ctx, protocol.EventData{SessionID: "s1", Kind: "display"}))
	}

	n, err := client.XLen(ctx, "test:events").Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, n, int64(20))
	assert.GreaterOrEqual(t, n, int64(5))
}

func TestRedisStream_PublishStatus(t *testing.T) {
	mr, client, sink := setupTestRedis(t, WithSessionTTL(time.Hour))
	ctx := context.Background()

	st := protocol.StatusData{
		SessionID: "s1",
		FrameID:   12,
		Detected:  true,
		Timer:     "Sitting 00:01:00",
		State:     protocol.StateData{BadPostureCount: 3, AlertActive: true},
	}
	require.NoError(t, sink.PublishStatus(ctx, st))

	key := sink.SessionKey("s1")
	assert.Equal(t, "posture:session:s1", key)

	fields, err := client.HGetAll(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, "12", fields["frame_id"])
	assert.Equal(t, "true", fields["detected"])
	assert.Equal(t, "3", fields["bad_posture_count"])
	assert.Equal(t, "true", fields["alert_active"])
	assert.Equal(t, "Sitting 00:01:00", fields["timer"])
	assert.NotEmpty(t, fields["updated_at"])

	assert.Equal(t, time.Hour, mr.TTL(key))

	// Later status overwrites
	st.State.BadPostureCount = 0
	st.State.AlertActive = false
	require.NoError(t, sink.PublishStatus(ctx, st))

	count, err := client.HGet(ctx, key, "bad_posture_count").Result()
	require.NoError(t, err)
	assert.Equal(t, "0", count)
}

func TestRedisStream_NoTTL(t *testing.T) {
	mr, _, sink := setupTestRedis(t, WithSessionTTL(0), WithSessionPrefix("p:"))

	require.NoError(t, sink.PublishStatus(context.Background(), protocol.StatusData{SessionID: "x"}))
	assert.True(t, mr.Exists("p:x"))
	assert.Equal(t, time.Duration(0), mr.TTL("p:x"))
}

func TestRedisStream_ServerDown(t *testing.T) {
	mr, _, sink := setupTestRedis(t)
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := sink.PublishEvent(ctx, protocol.EventData{SessionID: "s1"})
	assert.Error(t, err)
}

func TestDialRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	sink, err := DialRedis(ctx, mr.Addr(), "", 0)
	require.NoError(t, err)
	defer sink.Close()

	_, err = DialRedis(ctx, "", "", 0)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
