package api

import "Amora/internal/api/handler"

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	NotificationHandler *handler.NotificationHandler
	PresenceHandler     *handler.PresenceHandler
	IMHandler           *handler.IMHandler
	WSHandler           *handler.WsHandler
}
