package realtime

import (
	"Amora/internal/model"
	"context"
	log "log/slog"
	"sync"
	"time"
)

// BacklogStore 分发器需要的持久层能力子集
type BacklogStore interface {
	ListUndelivered(ctx context.Context, userID uint64) ([]*model.Notification, error)
	ClaimDelivery(ctx context.Context, id uint64, at time.Time) (bool, error)
	ReleaseDelivery(ctx context.Context, id uint64) error
}

// DispatcherOptions 分发器参数
type DispatcherOptions struct {
	Shards      int           // 按接收者哈希的工作协程数
	QueueSize   int           // 每个分片的任务队列长度
	PushTimeout time.Duration // 单连接推送超时，超时连接按死亡处理
}

func (o *DispatcherOptions) withDefaults() DispatcherOptions {
	out := *o
	if out.Shards <= 0 {
		out.Shards = 8
	}
	if out.QueueSize <= 0 {
		out.QueueSize = 1024
	}
	if out.PushTimeout <= 0 {
		out.PushTimeout = 3 * time.Second
	}
	return out
}

// task 分发任务：deliver 二选一 replay。
// conn 非空时补发只面向这条新连接，为空则面向用户全部连接。
type task struct {
	deliver *model.Notification
	replay  uint64
	conn    *Conn
}

// Dispatcher 投递分发器。同一接收者的任务恒定落在同一分片，
// 实时投递与积压补发天然按创建顺序串行；跨接收者无顺序保证。
type Dispatcher struct {
	store BacklogStore
	reg   *Registry
	opts  DispatcherOptions

	queues []chan task
	wg     sync.WaitGroup

	startOnce sync.Once
	stop      context.CancelFunc
}

func NewDispatcher(store BacklogStore, reg *Registry, opts DispatcherOptions) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{
		store:  store,
		reg:    reg,
		opts:   opts,
		queues: make([]chan task, opts.Shards),
	}
	for i := range d.queues {
		d.queues[i] = make(chan task, opts.QueueSize)
	}
	return d
}

// Start 启动分片工作协程，并消费上线事件触发补发
func (d *Dispatcher) Start(ctx context.Context, tracker *Tracker) {
	d.startOnce.Do(func() {
		ctx, d.stop = context.WithCancel(ctx)

		for i := range d.queues {
			d.wg.Add(1)
			go d.worker(ctx, d.queues[i])
		}

		if tracker != nil {
			d.wg.Add(1)
			go func() {
				defer d.wg.Done()
				for {
					select {
					case ev := <-tracker.Events():
						if ev.Online {
							d.enqueue(ctx, task{replay: ev.UserID})
						}
					case <-ctx.Done():
						return
					}
				}
			}()
		}
	})
}

// Stop 停止分发并等待工作协程退出
func (d *Dispatcher) Stop() {
	if d.stop != nil {
		d.stop()
	}
	d.wg.Wait()
}

// Dispatch 异步投递一条新通知。入队即返回，不等待推送结果，
// 事件来源（REST/Kafka）不会被慢连接拖住。
func (d *Dispatcher) Dispatch(n *model.Notification) {
	d.enqueue(context.Background(), task{deliver: n})
}

// RequestReplay 为一条新连接请求积压补发（多端场景下二号连接也要拿到积压）
func (d *Dispatcher) RequestReplay(userID uint64, conn *Conn) {
	d.enqueue(context.Background(), task{replay: userID, conn: conn})
}

func (d *Dispatcher) enqueue(ctx context.Context, t task) {
	userID := t.replay
	if t.deliver != nil {
		userID = t.deliver.RecipientID
	}
	q := d.queues[userID%uint64(len(d.queues))]
	select {
	case q <- t:
	case <-ctx.Done():
	}
}

func (d *Dispatcher) worker(ctx context.Context, q chan task) {
	defer d.wg.Done()
	for {
		select {
		case t := <-q:
			if t.deliver != nil {
				d.deliverNow(ctx, t.deliver)
			} else {
				d.replayBacklog(ctx, t.replay, t.conn)
			}
		case <-ctx.Done():
			return
		}
	}
}

// deliverNow 在线即推、离线留存。实时投递不直接推内存里的这条，
// 而是走按序补发路径排空该用户的未送达队列：新通知不会越过
// 尚未送达的旧积压，作废状态也总是以库里最新为准。
func (d *Dispatcher) deliverNow(ctx context.Context, n *model.Notification) {
	if len(d.reg.ConnectionsFor(n.RecipientID)) == 0 {
		return
	}
	d.replayBacklog(ctx, n.RecipientID, nil)
}

// replayBacklog 按创建顺序补发积压。conn 非空时只推这条连接。
// 每条先抢占送达权再推送：抢不到说明已在别处送达或已作废，跳过；
// 推送全部失败则回退标记并停止（连接已死，剩余积压留给下次连接）。
func (d *Dispatcher) replayBacklog(ctx context.Context, userID uint64, conn *Conn) {
	backlog, err := d.store.ListUndelivered(ctx, userID)
	if err != nil {
		log.Error("积压查询失败", "userID", userID, "err", err)
		return
	}
	if len(backlog) == 0 {
		return
	}

	for _, n := range backlog {
		data, err := EncodeFrame(n)
		if err != nil {
			log.Error("通知编码失败", "notificationID", n.ID, "err", err)
			continue
		}

		now := time.Now()
		claimed, err := d.store.ClaimDelivery(ctx, n.ID, now)
		if err != nil {
			log.Error("送达状态落库失败", "notificationID", n.ID, "err", err)
			return
		}
		if !claimed {
			continue
		}

		if conn != nil {
			if err := conn.TrySend(data, d.opts.PushTimeout); err != nil {
				d.release(ctx, n.ID)
				d.dropConn(conn)
				return
			}
			n.DeliveredAt = &now
			continue
		}

		ok := false
		for _, c := range d.reg.ConnectionsFor(userID) {
			if err := c.TrySend(data, d.opts.PushTimeout); err != nil {
				d.dropConn(c)
				continue
			}
			ok = true
		}
		if !ok {
			d.release(ctx, n.ID)
			return
		}
		n.DeliveredAt = &now
	}
}

func (d *Dispatcher) release(ctx context.Context, id uint64) {
	if err := d.store.ReleaseDelivery(ctx, id); err != nil {
		// 回退失败的行带着送达标记但没真正推出去，不会再被补发
		log.Error("送达标记回退失败", "notificationID", id, "err", err)
	}
}

// dropConn 推送超时/失败的连接按死亡处理：先摘除注册避免悬挂引用，再关闭传输
func (d *Dispatcher) dropConn(c *Conn) {
	log.Warn("连接推送超时，强制下线", "userID", c.UserID, "connID", c.ID)
	d.reg.Unregister(c.UserID, c.ID)
	c.Close()
}
