package handler

import (
	"Amora/internal/pkg/response"
	"Amora/internal/pkg/security"
	"Amora/internal/realtime"
	"Amora/internal/service"
	log "log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WsHandler 长连接生命周期入口：握手鉴权、注册、积压补发、心跳与注销
type WsHandler struct {
	registry   *realtime.Registry
	dispatcher *realtime.Dispatcher
	connOpts   realtime.ConnOptions
}

func NewWsHandler(registry *realtime.Registry, dispatcher *realtime.Dispatcher, connOpts realtime.ConnOptions) *WsHandler {
	return &WsHandler{
		registry:   registry,
		dispatcher: dispatcher,
		connOpts:   connOpts,
	}
}

func (s *WsHandler) Connect(c *gin.Context) {
	// 鉴权：身份无效直接拒绝升级，不触碰注册表
	token := c.Query("token")
	if token == "" {
		response.Error(c, service.UnauthorizedError)
		return
	}
	claims, err := security.ValidateToken(token)
	if err != nil {
		log.Warn("WS 鉴权失败", "err", err)
		response.Error(c, service.UnauthorizedError)
		return
	}
	userID := claims.UserID

	// 升级 Websocket
	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WS 协议升级失败", "err", err)
		return
	}

	conn := realtime.NewConn(userID, sock, s.connOpts)
	s.registry.Register(conn)

	// 注销恰好一次由这里兜底：Unregister 幂等，
	// 分发器先行摘除死连接也不会二次生效
	defer func() {
		s.registry.Unregister(userID, conn.ID)
		conn.Close()
		log.Info("用户 WS 连接已断开", "userID", userID, "connID", conn.ID)
	}()

	log.Info("用户 WS 连接已建立", "userID", userID, "connID", conn.ID)

	// 新连接按创建顺序补发未送达的积压
	s.dispatcher.RequestReplay(userID, conn)

	// 写循环后台推送；读循环阻塞在此，承担心跳超时与断开监听
	go conn.WritePump()
	conn.ReadLoop()
}
