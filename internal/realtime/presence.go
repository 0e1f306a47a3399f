package realtime

import (
	"context"
	log "log/slog"
	"time"
)

// Transition 上下线变更事件
type Transition struct {
	UserID uint64
	Online bool
	At     time.Time
}

// PresenceMirror 在线状态的外部镜像（如 Redis TTL 键），供其他实例查询。
// 实现必须快速返回，失败只记录不阻断。
type PresenceMirror interface {
	SetOnline(ctx context.Context, userID uint64) error
	SetOffline(ctx context.Context, userID uint64) error
	Refresh(ctx context.Context, userIDs []uint64) error
}

// Tracker 在线状态追踪器：注册表占用情况的派生视图。
// 本体不单独存状态，注册表即真相源。
type Tracker struct {
	reg    *Registry
	mirror PresenceMirror
	events chan Transition

	refreshEvery time.Duration
}

func NewTracker(reg *Registry, mirror PresenceMirror) *Tracker {
	t := &Tracker{
		reg:          reg,
		mirror:       mirror,
		events:       make(chan Transition, 1024),
		refreshEvery: 30 * time.Second,
	}
	reg.OnTransition(t.handle)
	return t
}

// IsOnline 用户是否在线（至少持有一条活跃连接）
func (t *Tracker) IsOnline(userID uint64) bool {
	return t.reg.IsOnline(userID)
}

// Events 上下线事件流，由分发器消费（上线事件触发积压补发）
func (t *Tracker) Events() <-chan Transition {
	return t.events
}

func (t *Tracker) handle(userID uint64, online bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if t.mirror != nil {
		var err error
		if online {
			err = t.mirror.SetOnline(ctx, userID)
		} else {
			err = t.mirror.SetOffline(ctx, userID)
		}
		if err != nil {
			log.Warn("在线状态镜像更新失败", "userID", userID, "online", online, "err", err)
		}
	}

	ev := Transition{UserID: userID, Online: online, At: time.Now()}
	select {
	case t.events <- ev:
	default:
		// 事件积压时丢弃最旧语义不可取，直接记录异常；
		// 补发仍会由连接级触发兜底
		log.Warn("在线状态事件队列已满", "userID", userID, "online", online)
	}
}

// Run 周期续期镜像 TTL，防止在线用户的镜像键过期
func (t *Tracker) Run(ctx context.Context) {
	if t.mirror == nil {
		return
	}
	ticker := time.NewTicker(t.refreshEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			users := t.reg.OnlineUsers()
			if len(users) == 0 {
				continue
			}
			refreshCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			if err := t.mirror.Refresh(refreshCtx, users); err != nil {
				log.Warn("在线状态镜像续期失败", "count", len(users), "err", err)
			}
			cancel()
		case <-ctx.Done():
			return
		}
	}
}
