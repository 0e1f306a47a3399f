package realtime

import (
	"Amora/internal/pkg/consts"
	"Amora/internal/pkg/redis"
	"context"
	"strconv"
	"time"
)

// redisMirror 将在线状态写入 Redis TTL 键，供网关外的实例查询。
// 注册表仍是本进程的真相源，镜像只是旁路视图。
type redisMirror struct {
	ttl time.Duration
}

func NewRedisMirror(ttl time.Duration) PresenceMirror {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &redisMirror{ttl: ttl}
}

func (m *redisMirror) key(userID uint64) string {
	return consts.PresenceOnlineKey + strconv.FormatUint(userID, 10)
}

func (m *redisMirror) SetOnline(ctx context.Context, userID uint64) error {
	return redis.SetWithExpiration(ctx, m.key(userID), time.Now().Unix(), m.ttl)
}

func (m *redisMirror) SetOffline(ctx context.Context, userID uint64) error {
	return redis.DeleteKey(ctx, m.key(userID))
}

// Refresh 续期用 SET 而不是 EXPIRE：Redis 重启或键被逐出后，
// EXPIRE 对不存在的键是空操作，长期在线用户的镜像会一直缺失
func (m *redisMirror) Refresh(ctx context.Context, userIDs []uint64) error {
	for _, uid := range userIDs {
		if err := redis.SetWithExpiration(ctx, m.key(uid), time.Now().Unix(), m.ttl); err != nil {
			return err
		}
	}
	return nil
}
