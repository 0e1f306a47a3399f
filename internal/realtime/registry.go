package realtime

import (
	"sort"
	"sync"
)

const registryShardCount = 16

// Registry 在线连接注册表：userID -> 活跃连接集合。
// 按 userID 分片加锁，同一用户的注册/注销串行化。
type Registry struct {
	shards [registryShardCount]registryShard

	mu           sync.RWMutex
	onTransition func(userID uint64, online bool)
}

type registryShard struct {
	mu    sync.RWMutex
	users map[uint64]map[string]*Conn
}

func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i].users = make(map[uint64]map[string]*Conn)
	}
	return r
}

func (r *Registry) shardFor(userID uint64) *registryShard {
	return &r.shards[userID%registryShardCount]
}

// OnTransition 注册上下线回调（首条连接注册 = 上线，最后一条注销 = 下线）。
// 回调在锁外执行。
func (r *Registry) OnTransition(fn func(userID uint64, online bool)) {
	r.mu.Lock()
	r.onTransition = fn
	r.mu.Unlock()
}

func (r *Registry) notify(userID uint64, online bool) {
	r.mu.RLock()
	fn := r.onTransition
	r.mu.RUnlock()
	if fn != nil {
		fn(userID, online)
	}
}

// Register 登记一条连接，同一用户多端并存。返回连接 ID。
func (r *Registry) Register(conn *Conn) string {
	shard := r.shardFor(conn.UserID)

	shard.mu.Lock()
	set, ok := shard.users[conn.UserID]
	if !ok {
		set = make(map[string]*Conn, 1)
		shard.users[conn.UserID] = set
	}
	set[conn.ID] = conn
	first := len(set) == 1
	shard.mu.Unlock()

	if first {
		r.notify(conn.UserID, true)
	}
	return conn.ID
}

// Unregister 注销连接，重复注销是空操作
func (r *Registry) Unregister(userID uint64, connID string) {
	shard := r.shardFor(userID)

	shard.mu.Lock()
	set, ok := shard.users[userID]
	if !ok {
		shard.mu.Unlock()
		return
	}
	if _, ok = set[connID]; !ok {
		shard.mu.Unlock()
		return
	}
	delete(set, connID)
	last := len(set) == 0
	if last {
		delete(shard.users, userID)
	}
	shard.mu.Unlock()

	if last {
		r.notify(userID, false)
	}
}

// ConnectionsFor 返回用户当前活跃连接的快照，可能为空
func (r *Registry) ConnectionsFor(userID uint64) []*Conn {
	shard := r.shardFor(userID)

	shard.mu.RLock()
	defer shard.mu.RUnlock()

	set := shard.users[userID]
	if len(set) == 0 {
		return nil
	}
	conns := make([]*Conn, 0, len(set))
	for _, c := range set {
		conns = append(conns, c)
	}
	// 固定顺序，便于扇出与测试
	sort.Slice(conns, func(i, j int) bool { return conns[i].ID < conns[j].ID })
	return conns
}

func (r *Registry) IsOnline(userID uint64) bool {
	shard := r.shardFor(userID)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	return len(shard.users[userID]) > 0
}

// OnlineUsers 当前在线用户快照
func (r *Registry) OnlineUsers() []uint64 {
	var users []uint64
	for i := range r.shards {
		shard := &r.shards[i]
		shard.mu.RLock()
		for uid := range shard.users {
			users = append(users, uid)
		}
		shard.mu.RUnlock()
	}
	return users
}

// CloseAll 停机时关闭全部连接并清空注册表
func (r *Registry) CloseAll() {
	for i := range r.shards {
		shard := &r.shards[i]
		shard.mu.Lock()
		for uid, set := range shard.users {
			for _, c := range set {
				c.Close()
			}
			delete(shard.users, uid)
		}
		shard.mu.Unlock()
	}
}
