package router

import (
	"net/http"

	"github.com/wb-go/wbf/ginext"

	"github.com/aliskhannn/notification-dispatcher/internal/api/handlers/notification"
	"github.com/aliskhannn/notification-dispatcher/internal/api/respond"
	"github.com/aliskhannn/notification-dispatcher/internal/middlewares"
)

// New builds the HTTP routes of the service.
func New(handler *notification.Handler) *ginext.Engine {
	e := ginext.New()
	e.Use(middlewares.CORSMiddleware())
	e.Use(ginext.Logger())
	e.Use(ginext.Recovery())

	e.POST("/notifications", handler.Create)
	e.GET("/notifications/:id/status", handler.GetStatus)
	e.GET("/users/:id/notifications", handler.GetUserNotifications)

	e.GET("/health", func(c *ginext.Context) {
		respond.JSON(c.Writer, http.StatusOK, map[string]string{"status": "ok"})
	})

	e.NoRoute(func(c *ginext.Context) {
		respond.Error(c.Writer, http.StatusNotFound, "Cannot "+c.Request.Method+" "+c.Request.URL.RequestURI())
	})

	return e
}
