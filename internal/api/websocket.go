package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"gopkg.in/tomb.v2"

	"github.com/sengkeat-dex/orderbook-svc/internal/marketdata"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// DepthStream handles WS /ws/depth?levels=K (§4.9, §6): on upgrade it sends
// the current snapshot, then forwards every broadcast for the pair until
// either side closes. A tomb waits on the read and write pumps: the read
// pump cancels the write pump when the connection breaks, and the write
// pump closes the connection when it stops, so either one ending tears the
// connection down, following the pack's tomb-per-connection idiom (§11).
func (h *Handlers) DepthStream(c *gin.Context) {
	pair, err := pairFromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}
	levels := levelsFromQuery(c, defaultStreamLevels)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sub := h.broadcaster.Subscribe(pair, levels, marketdata.DefaultCapacity)
	defer h.broadcaster.Unsubscribe(sub)

	initial := h.pipeline.Depth(pair, levels)
	if err := conn.WriteJSON(toDepthResponse(initial)); err != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var t tomb.Tomb
	t.Go(func() error { return readPump(conn, cancel) })
	t.Go(func() error { return writePump(ctx, conn, sub) })
	t.Wait()
}

// readPump only watches for the close handshake and discards anything else
// a client sends (§4.9: "a backward message other than a close frame is
// ignored"). Its sole job besides that is keeping the read deadline alive
// against pongs; it always returns (and cancels the write pump) once the
// connection breaks.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) error {
	defer cancel()
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return err
		}
	}
}

// writePump forwards the subscriber's snapshots and pings the client every
// nine tenths of pongWait so the read pump's deadline is renewed by the
// client's pongs. It closes the connection when it returns.
func writePump(ctx context.Context, conn *websocket.Conn, sub *marketdata.Subscriber) error {
	defer conn.Close()
	go func() {
		ticker := time.NewTicker(pongWait * 9 / 10)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			}
		}
	}()
	for {
		snapshot, _, ok := sub.Next(ctx)
		if !ok {
			return nil
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(toDepthResponse(snapshot)); err != nil {
			return err
		}
	}
}
