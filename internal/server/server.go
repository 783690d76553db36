package server

import (
	"github.com/gin-gonic/gin"

	"github.com/AlexandriaDAO/OpenHouse-backend-sub000/internal/grid"
	"github.com/AlexandriaDAO/OpenHouse-backend-sub000/internal/placement"
	"github.com/AlexandriaDAO/OpenHouse-backend-sub000/internal/session"
)

func SetupRouter(hub *Hub, sess *session.Session) *gin.Engine {
	r := gin.Default()

	r.GET("/", infoHandler)
	r.GET("/patterns", patternsHandler)

	r.GET("/ws", HandleWebsocket(hub, sess))

	return r
}

func infoHandler(c *gin.Context) {
	c.JSON(200, gin.H{
		"grid_size":   grid.Size,
		"max_players": grid.MaxPlayers,
		"frame":       "one byte per cell, row-major; low bits owner, high bit alive",
	})
}

func patternsHandler(c *gin.Context) {
	c.JSON(200, gin.H{"patterns": placement.PatternNames()})
}
