package stream

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func RegisterRoutes(r fiber.Router, hub *Hub) {
	r.Get("/ws/:trackID", websocket.New(func(c *websocket.Conn) {
		sub := hub.Register(c.Params("trackID"))

		done := make(chan struct{})
		go func() {
			defer close(done)
			for msg := range sub.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}

		// Unregister closes Send, which ends the writer even when the
		// track goes quiet.
		hub.Unregister(sub)
		<-done
	}))
}
