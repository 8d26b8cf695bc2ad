// Package web provides API routes for the web server.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

const lookupTimeout = 10 * time.Second

// HistoryReader returns a user's moderation record and cases
type HistoryReader interface {
	History(ctx context.Context, guildID, userID string) (*moderation.History, error)
}

// StatusSource reports the state of a backing store
type StatusSource interface {
	GetStatus(ctx context.Context) (string, bool)
}

// API holds what the routes read from. Nil members are reported offline.
type API struct {
	History  HistoryReader
	Database StatusSource
	BotReady func() bool
}

// SetupAPIRoutes sets up the API routes
func SetupAPIRoutes(s *Server, deps API) {
	api := s.Group("/api")
	{
		api.GET("/status", deps.statusHandler)
		api.GET("/health", healthHandler)

		users := api.Group("/guilds/:guildId/users/:userId")
		users.GET("", deps.userHandler)
		users.GET("/cases", deps.casesHandler)
	}
}

// statusHandler returns the bot and database status
func (deps API) statusHandler(c *gin.Context) {
	dbStatus, dbOnline := "Desconectado", false
	if deps.Database != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), lookupTimeout)
		defer cancel()
		dbStatus, dbOnline = deps.Database.GetStatus(ctx)
	}

	botOnline := false
	if deps.BotReady != nil {
		botOnline = deps.BotReady()
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"database": gin.H{
			"status":   dbStatus,
			"isOnline": dbOnline,
		},
		"bot": gin.H{
			"isOnline": botOnline,
		},
	})
}

// healthHandler returns a simple health check response
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "PancyMod Go is running",
	})
}

func (deps API) history(c *gin.Context) (*moderation.History, bool) {
	if deps.History == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Unavailable",
			"message": "La moderación no está disponible en este momento.",
		})
		return nil, false
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), lookupTimeout)
	defer cancel()

	h, err := deps.History.History(ctx, c.Param("guildId"), c.Param("userId"))
	if err != nil {
		logger.Error("Error consultando historial: "+err.Error(), "WebServer")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal Server Error",
			"message": "No se pudo consultar el historial.",
		})
		return nil, false
	}
	return h, true
}

// userHandler returns a user's point total and mute state
func (deps API) userHandler(c *gin.Context) {
	h, ok := deps.history(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":  h.Record,
		"cases": len(h.Cases),
	})
}

// casesHandler lists a user's cases ordered by id
func (deps API) casesHandler(c *gin.Context) {
	h, ok := deps.history(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"guildId": c.Param("guildId"),
		"userId":  c.Param("userId"),
		"cases":   h.Cases,
	})
}
