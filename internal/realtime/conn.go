package realtime

import (
	"errors"
	log "log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var ErrConnClosed = errors.New("connection closed")

// Transport 推送通道的传输层抽象，*websocket.Conn 天然满足
type Transport interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
	Close() error
}

// ConnOptions 单连接心跳与写超时参数
type ConnOptions struct {
	PingInterval time.Duration // 服务端 ping 周期
	PongWait     time.Duration // 等待 pong 的最长间隔，超时视为失联
	WriteWait    time.Duration // 单帧写超时
	SendBuffer   int           // 发送队列长度
}

func (o *ConnOptions) withDefaults() ConnOptions {
	out := *o
	if out.PingInterval <= 0 {
		out.PingInterval = 25 * time.Second
	}
	if out.PongWait <= 0 {
		out.PongWait = 60 * time.Second
	}
	if out.WriteWait <= 0 {
		out.WriteWait = 10 * time.Second
	}
	if out.SendBuffer <= 0 {
		out.SendBuffer = 64
	}
	return out
}

// Conn 一条已鉴权的长连接
type Conn struct {
	ID       string
	UserID   uint64
	OpenedAt time.Time

	tr   Transport
	opts ConnOptions

	send chan []byte
	done chan struct{}
	once sync.Once
}

func NewConn(userID uint64, tr Transport, opts ConnOptions) *Conn {
	opts = opts.withDefaults()
	return &Conn{
		ID:       uuid.New().String(),
		UserID:   userID,
		OpenedAt: time.Now(),
		tr:       tr,
		opts:     opts,
		send:     make(chan []byte, opts.SendBuffer),
		done:     make(chan struct{}),
	}
}

// TrySend 限时入队。超过 timeout 仍塞不进发送队列说明对端长期不消费，
// 调用方应按死连接处理。
func (c *Conn) TrySend(data []byte, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrConnClosed
	case <-timer.C:
		return ErrConnClosed
	}
}

// Close 幂等关闭：标记结束并释放传输层
func (c *Conn) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.tr.Close()
	})
}

// Closed 连接是否已关闭
func (c *Conn) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// WritePump 写循环：推送队列帧 + 周期 ping，写失败即关闭
func (c *Conn) WritePump() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.tr.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.tr.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn("WS 推送失败", "userID", c.UserID, "connID", c.ID, "err", err)
				return
			}
		case <-ticker.C:
			if err := c.tr.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.opts.WriteWait)); err != nil {
				return
			}
		case <-c.done:
			_ = c.tr.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.opts.WriteWait))
			return
		}
	}
}

// ReadLoop 读循环：维持心跳超时并监听客户端断开，阻塞到连接结束。
// 协议不要求客户端上行帧，收到的内容一律丢弃。
func (c *Conn) ReadLoop() {
	defer c.Close()

	_ = c.tr.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.tr.SetPongHandler(func(string) error {
		return c.tr.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		if _, _, err := c.tr.ReadMessage(); err != nil {
			return
		}
	}
}
