package handlers

import (
	"context"
	"encoding/json"
	"lawconnect/services"
	"log"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
)

const wsWriteTimeout = 5 * time.Second

// socketOrigins returns the cross-origin hosts a websocket may be opened
// from. A wildcard is ignored so the default CORS setting never disables
// the same-origin check on cookie-authenticated sockets.
func socketOrigins(allowed []string) []string {
	var out []string
	for _, o := range allowed {
		o = strings.TrimSpace(o)
		if o == "" || o == "*" {
			continue
		}
		// patterns match the Origin host, not the full URL
		if i := strings.Index(o, "://"); i >= 0 {
			o = o[i+3:]
		}
		out = append(out, strings.TrimSuffix(o, "/"))
	}
	return out
}

// serveSocket upgrades the request and forwards events of topic to the
// connection through push until either side goes away. The browser never
// sends; CloseRead answers pings and notices the close.
func serveSocket(c echo.Context, userID, topic string, push func(ctx context.Context, conn *websocket.Conn, ev services.Event) error) error {
	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		OriginPatterns: socketOrigins(appConfig(c).AllowedOrigins),
	})
	if err != nil {
		log.Printf("[WARNING] websocket accept for %s: %v", userID, err)
		return nil
	}
	defer conn.CloseNow()

	events, cancel := services.Realtime.Subscribe(topic)
	defer cancel()

	ctx := conn.CloseRead(c.Request().Context())
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := push(ctx, conn, ev); err != nil {
				log.Printf("[INFO] websocket for %s closed: %v", userID, err)
				return nil
			}
		}
	}
}

func writeFrame(ctx context.Context, conn *websocket.Conn, frame interface{}) error {
	b, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, b)
}
