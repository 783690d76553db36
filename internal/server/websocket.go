package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/AlexandriaDAO/OpenHouse-backend-sub000/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type stageAction struct {
	Action   string `json:"action"`
	Pattern  string `json:"pattern"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Rotation int    `json:"rotation"`
}

type cancelAction struct {
	Action string `json:"action"`
	ID     string `json:"id"`
}

// HandleWebsocket upgrades a viewer connection and dispatches its actions
// into the session. State flows the other way through the hub.
func HandleWebsocket(hub *Hub, sess *session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Println("WS upgrade error:", err)
			return
		}

		hub.Register(conn)

		for {
			msgType, msg, err := conn.ReadMessage()
			if err != nil {
				hub.Unregister(conn)
				break
			}
			if msgType != websocket.TextMessage {
				continue
			}

			var base map[string]interface{}
			if err := json.Unmarshal(msg, &base); err != nil {
				log.Println("JSON parse error:", err)
				continue
			}
			action, ok := base["action"].(string)
			if !ok {
				continue
			}

			switch action {
			case "stage":
				var stage stageAction
				json.Unmarshal(msg, &stage)
				if _, err := sess.StagePlacement(stage.Pattern, stage.X, stage.Y, stage.Rotation); err != nil {
					resp, _ := json.Marshal(map[string]string{
						"action": "stage_error",
						"error":  err.Error(),
					})
					hub.sendTo(conn, websocket.TextMessage, resp)
				}

			case "cancel":
				var cancel cancelAction
				json.Unmarshal(msg, &cancel)
				sess.CancelPlacement(cancel.ID)

			case "submit":
				sess.Submit()

			case "reset":
				sess.Reset()
			}
		}
	}
}
