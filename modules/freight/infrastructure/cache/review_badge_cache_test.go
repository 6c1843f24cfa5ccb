package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// memoryHook answers GET/SET/DEL from a map so the client never dials.
type memoryHook struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	fail error
}

func newMemoryClient(t *testing.T) (*redis.Client, *memoryHook) {
	t.Helper()
	hook := &memoryHook{data: map[string]string{}, ttls: map[string]time.Duration{}}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(hook)
	t.Cleanup(func() { _ = client.Close() })
	return client, hook
}

func (h *memoryHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, errors.New("dial disabled in tests")
	}
}

func (h *memoryHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		return errors.New("pipelines disabled in tests")
	}
}

func (h *memoryHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.fail != nil {
			cmd.SetErr(h.fail)
			return h.fail
		}
		args := cmd.Args()
		switch c := cmd.(type) {
		case *redis.StringCmd:
			v, ok := h.data[fmt.Sprint(args[1])]
			if !ok {
				c.SetErr(redis.Nil)
				return redis.Nil
			}
			c.SetVal(v)
		case *redis.StatusCmd:
			key := fmt.Sprint(args[1])
			h.data[key] = fmt.Sprint(args[2])
			if len(args) >= 5 {
				h.ttls[key] = time.Duration(args[4].(int64)) * time.Second
			}
			c.SetVal("OK")
		case *redis.IntCmd:
			var n int64
			for _, k := range args[1:] {
				if _, ok := h.data[fmt.Sprint(k)]; ok {
					delete(h.data, fmt.Sprint(k))
					n++
				}
			}
			c.SetVal(n)
		default:
			return fmt.Errorf("unexpected command %v", args)
		}
		return nil
	}
}

func TestReviewBadgeCache_RoundTrip(t *testing.T) {
	client, hook := newMemoryClient(t)
	c := NewReviewBadgeCache(client, 30*time.Second)
	ctx := context.Background()
	org := uuid.New()

	_, ok, err := c.Get(ctx, org)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, org, 7))
	require.Equal(t, 30*time.Second, hook.ttls[c.key(org)])

	n, ok, err := c.Get(ctx, org)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(7), n)

	_, ok, err = c.Get(ctx, uuid.New())
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Invalidate(ctx, org))
	_, ok, err = c.Get(ctx, org)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestReviewBadgeCache_PropagatesErrors(t *testing.T) {
	client, hook := newMemoryClient(t)
	hook.fail = errors.New("connection reset")
	c := NewReviewBadgeCache(client, time.Minute)

	_, _, err := c.Get(context.Background(), uuid.New())
	require.ErrorContains(t, err, "read review badge")
	require.ErrorContains(t, c.Invalidate(context.Background(), uuid.New()), "invalidate review badge")
}

func TestReviewBadgeCache_NilClientIsNoop(t *testing.T) {
	c := NewReviewBadgeCache(nil, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, uuid.New(), 3))
	_, ok, err := c.Get(ctx, uuid.New())
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, c.Invalidate(ctx, uuid.New()))

	var nilCache *ReviewBadgeCache
	require.NoError(t, nilCache.Invalidate(ctx, uuid.New()))
}
