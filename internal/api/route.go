package api

import (
	"Amora/internal/api/middleware"
	"Amora/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		// 长连接入口：鉴权在升级握手内完成（token 查询参数）
		apiGroup.GET("/ws", group.WSHandler.Connect)

		notifGroup := apiGroup.Group("/notifications")
		notifGroup.Use(middleware.AuthMiddleware())
		{
			notifGroup.GET("/:user_id/unread", group.NotificationHandler.GetUnread)
			notifGroup.GET("/unread/count", group.NotificationHandler.GetUnreadCount)
			notifGroup.PUT("/:id/read", group.NotificationHandler.MarkRead)
			notifGroup.POST("/flash", group.NotificationHandler.Flash)
			notifGroup.POST("/unflash", group.NotificationHandler.Unflash)
			notifGroup.POST("/match", group.NotificationHandler.Match)
			notifGroup.POST("/view", group.NotificationHandler.View)
		}

		presenceGroup := apiGroup.Group("/presence")
		presenceGroup.Use(middleware.AuthMiddleware())
		{
			presenceGroup.GET("/:user_id", group.PresenceHandler.GetPresence)
		}

		imGroup := apiGroup.Group("/im")
		imGroup.Use(middleware.AuthMiddleware())
		{
			imGroup.POST("/send", group.IMHandler.SendMessage)
			imGroup.GET("/history", group.IMHandler.GetHistory)
		}
	}

	return r
}
