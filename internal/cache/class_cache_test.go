package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/minilms-backend/internal/model"
)

func TestNoop(t *testing.T) {
	var c Noop
	ctx := context.Background()
	c.Set(ctx, "1", []model.Class{{ID: 1}})
	c.Invalidate(ctx)
	got, token, ok := c.Get(ctx)
	assert.False(t, ok)
	assert.Empty(t, token)
	assert.Nil(t, got)
}

// The Redis tests need a disposable server, e.g. REDIS_TEST_URL=redis://localhost:6379/15.
func newTestClassList(t *testing.T) *ClassList {
	t.Helper()
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opt)
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.FlushDB(context.Background()).Err())
	return NewClassList(rdb, time.Minute, zerolog.Nop())
}

func TestClassListRoundTrip(t *testing.T) {
	c := newTestClassList(t)
	ctx := context.Background()

	_, token, ok := c.Get(ctx)
	require.False(t, ok)
	assert.Equal(t, "0", token)

	classes := []model.Class{{ID: 1, Name: "Math", TimeSlotStart: model.NewTimeOfDay(8, 0, 0), TimeSlotEnd: model.NewTimeOfDay(9, 0, 0), MaxStudents: 3}}
	c.Set(ctx, token, classes)

	got, _, ok := c.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, classes[0].Name, got[0].Name)
	assert.Equal(t, classes[0].TimeSlotEnd, got[0].TimeSlotEnd)
}

func TestClassListStaleWriteIsHidden(t *testing.T) {
	c := newTestClassList(t)
	ctx := context.Background()

	_, token, _ := c.Get(ctx)
	c.Invalidate(ctx)
	// A reader that started before the invalidation stores its result late.
	c.Set(ctx, token, []model.Class{{ID: 1, CurrentStudents: 0}})

	_, fresh, ok := c.Get(ctx)
	assert.False(t, ok)
	assert.NotEqual(t, token, fresh)
}

// fakeRedis answers the commands ClassList issues without a server.
type fakeRedis struct {
	mu       sync.Mutex
	data     map[string]string
	failIncr atomic.Bool
}

func (f *fakeRedis) DialHook(next redis.DialHook) redis.DialHook { return next }

func (f *fakeRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (f *fakeRedis) ProcessHook(redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		f.mu.Lock()
		defer f.mu.Unlock()

		args := cmd.Args()
		key, _ := args[1].(string)
		switch c := cmd.(type) {
		case *redis.StringCmd:
			v, ok := f.data[key]
			if !ok {
				return redis.Nil
			}
			c.SetVal(v)
			return nil
		case *redis.StatusCmd:
			switch v := args[2].(type) {
			case []byte:
				f.data[key] = string(v)
			default:
				f.data[key] = fmt.Sprint(v)
			}
			c.SetVal("OK")
			return nil
		case *redis.IntCmd:
			switch cmd.Name() {
			case "incr":
				if f.failIncr.Load() {
					return errors.New("dial tcp: connection refused")
				}
				n, _ := strconv.Atoi(f.data[key])
				n++
				f.data[key] = strconv.Itoa(n)
				c.SetVal(int64(n))
				return nil
			case "del":
				for _, a := range args[1:] {
					delete(f.data, a.(string))
				}
				c.SetVal(1)
				return nil
			}
		}
		return fmt.Errorf("unexpected command %s", cmd.Name())
	}
}

func newFakeClassList(t *testing.T) (*ClassList, *fakeRedis) {
	t.Helper()
	fake := &fakeRedis{data: map[string]string{}}
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	rdb.AddHook(fake)
	t.Cleanup(func() { _ = rdb.Close() })
	return NewClassList(rdb, time.Minute, zerolog.Nop()), fake
}

func TestClassListFailedInvalidateStopsServing(t *testing.T) {
	c, fake := newFakeClassList(t)
	ctx := context.Background()

	_, token, _ := c.Get(ctx)
	c.Set(ctx, token, []model.Class{{ID: 1, CurrentStudents: 0}})
	_, _, ok := c.Get(ctx)
	require.True(t, ok)

	fake.failIncr.Store(true)
	c.Invalidate(ctx)

	got, token, ok := c.Get(ctx)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.Empty(t, token)
	c.Set(ctx, token, []model.Class{{ID: 1, CurrentStudents: 0}})

	fake.failIncr.Store(false)
	_, token, ok = c.Get(ctx)
	assert.False(t, ok, "stale page served after a failed invalidation")
	assert.Equal(t, "1", token)

	c.Set(ctx, token, []model.Class{{ID: 1, CurrentStudents: 1}})
	got, _, ok = c.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, 1, got[0].CurrentStudents)
}

func TestClassListFailedInvalidateDropsCurrentPage(t *testing.T) {
	c, fake := newFakeClassList(t)
	ctx := context.Background()

	_, token, _ := c.Get(ctx)
	c.Set(ctx, token, []model.Class{{ID: 1}})
	require.Len(t, fake.data, 1)

	fake.failIncr.Store(true)
	c.Invalidate(ctx)
	assert.Empty(t, fake.data)
}
