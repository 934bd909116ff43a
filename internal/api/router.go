package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RouterConfig carries the optional pieces mounted next to the JSON API.
type RouterConfig struct {
	Hub     *SSEHub
	Metrics http.Handler // served at /metrics when set
	MCP     http.Handler // served at /mcp when set
	Search  Searcher     // served at /api/search when set
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.LoggerWithWriter(h.logger.Writer()), gin.Recovery(), metricsMiddleware())
	SetupRoutes(router, h, cfg)
	return router
}

func SetupRoutes(router *gin.Engine, h *Handler, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics))
	}
	if cfg.MCP != nil {
		router.Any("/mcp", gin.WrapH(cfg.MCP))
	}

	api := router.Group("/api")
	{
		TaskRouter(api.Group("/tasks"), h)
		DocumentRouter(api.Group("/documents"), h)
		NotificationRouter(api.Group("/notifications"), h)
		AgentRouter(api.Group("/agents"), h)

		api.GET("/standups", h.ListStandups)
		api.POST("/standups", h.CreateStandup)
		api.GET("/activities", h.ListActivities)

		api.POST("/admin/agents/initialize", h.InitializeAgents)
		api.POST("/admin/agents/reset", h.ResetAgents)
		api.POST("/send", h.Send)
		api.POST("/broadcast", h.Broadcast)

		if cfg.Hub != nil {
			api.GET("/events", cfg.Hub.Stream)
		}
		if cfg.Search != nil {
			api.GET("/search", h.searchHandler(cfg.Search))
		}
	}
}

func TaskRouter(rg *gin.RouterGroup, h *Handler) {
	rg.GET("", h.ListTasks)
	rg.POST("", h.CreateTask)
	rg.GET("/:id", h.GetTask)
	rg.PATCH("/:id", h.UpdateTask)
	rg.POST("/:id/assign", h.AssignTask)
	rg.POST("/:id/status", h.UpdateTaskStatus)
	rg.GET("/:id/messages", h.ListTaskMessages)
	rg.POST("/:id/messages", h.CreateMessage)
	rg.GET("/:id/subscribers", h.ListSubscribers)
	rg.POST("/:id/subscribe", h.Subscribe)
	rg.POST("/:id/unsubscribe", h.Unsubscribe)
}

func DocumentRouter(rg *gin.RouterGroup, h *Handler) {
	rg.GET("", h.ListDocuments)
	rg.POST("", h.CreateDocument)
	rg.GET("/:id", h.GetDocument)
	rg.PATCH("/:id", h.UpdateDocument)
}

func NotificationRouter(rg *gin.RouterGroup, h *Handler) {
	rg.GET("/undelivered", h.ListUndelivered)
	rg.POST("", h.CreateNotification)
	rg.POST("/:id/delivered", h.MarkDelivered)
}

func AgentRouter(rg *gin.RouterGroup, h *Handler) {
	rg.GET("", h.ListAgents)
	rg.GET("/:id", h.GetAgent)
	rg.POST("/:id/heartbeat", h.Heartbeat)
	rg.PUT("/:id/status", h.UpdateAgentStatus)
	rg.PUT("/:id/current-task", h.SetCurrentTask)
	rg.GET("/:id/notifications", h.ListAgentNotifications)
	rg.POST("/:id/notifications/read", h.MarkAllRead)
	rg.GET("/:id/messages", h.ListAgentMessages)
	rg.GET("/:id/subscriptions", h.ListAgentSubscriptions)
	rg.GET("/:id/standups", h.ListAgentStandups)
	rg.GET("/:id/activities", h.ListAgentActivities)
}
