package store

import (
	"testing"
	"time"

	"github.com/longbridgeapp/assert"

	"github.com/hyp3rd/settingsync/internal/sentinel"
	redisclient "github.com/hyp3rd/settingsync/pkg/store/redis"
)

func TestNewRedis_RequiresClientOrAddr(t *testing.T) {
	_, err := NewRedis()
	assert.Equal(t, sentinel.ErrNilClient, err)
}

func TestNewRedis_BuildsClientFromAddr(t *testing.T) {
	// Client construction does not dial, so no server is needed here.
	redisStore, err := NewRedis(
		WithRedisAddr("127.0.0.1:6379",
			redisclient.WithDB(2),
			redisclient.WithReadTimeout(time.Second),
		),
		WithKeysSetName("settings-slots"),
	)
	assert.Nil(t, err)
	assert.NotNil(t, redisStore.rdb)
	assert.Equal(t, "settings-slots", redisStore.keysSetName)
	assert.Equal(t, "127.0.0.1:6379", redisStore.rdb.Options().Addr)
	assert.Equal(t, 2, redisStore.rdb.Options().DB)
}

func TestNewRedis_EmptyAddrRejected(t *testing.T) {
	_, err := NewRedis(WithRedisAddr("   "))
	assert.NotNil(t, err)
}
