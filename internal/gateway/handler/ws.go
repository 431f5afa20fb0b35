package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"holoprofile/internal/gateway/middleware"
	"holoprofile/internal/pipeline"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingEvery  = (wsPongWait * 9) / 10
	wsCloseGrace = 2 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

var errPeerClosed = errors.New("websocket peer closed")

// AnalyzeWS serves GET /api/analyze/ws. The client sends one AnalyzeRequest
// message and receives the run's events as text messages, followed by a
// close frame. Closing the socket early cancels the run.
func (h *Handler) AnalyzeWS(w http.ResponseWriter, r *http.Request) {
	log := middleware.LoggerFrom(r.Context())
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxBodyBytes)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	var req AnalyzeRequest
	if err := conn.ReadJSON(&req); err != nil {
		log.Info("websocket request unreadable", zap.Error(err))
		h.wsFinish(conn, pipeline.Event{Type: pipeline.EventError, Data: "invalid json body"})
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if req.Test {
		res, err := h.prober.Probe(ctx, req.modelConfig())
		if err != nil {
			log.Warn("probe failed", zap.Error(err))
			h.wsFinish(conn, errorBody{Error: pipeline.ErrorMessage(err)})
			return
		}
		h.wsFinish(conn, res)
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return wsReadUntilClosed(conn) })
	g.Go(func() error { return wsWriteEvents(gctx, conn, h.analyzer.Stream(gctx, req.state())) })
	if err := g.Wait(); err != nil && !errors.Is(err, errPeerClosed) {
		log.Info("websocket stream ended early", zap.Error(err))
	}
}

// wsReadUntilClosed discards inbound messages and returns once the peer
// closes or stops answering pings.
func wsReadUntilClosed(conn *websocket.Conn) error {
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return errPeerClosed
		}
	}
}

func wsWriteEvents(ctx context.Context, conn *websocket.Conn, events <-chan pipeline.Event) error {
	ticker := time.NewTicker(wsPingEvery)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				wsClose(conn)
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				return err
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

func (h *Handler) wsFinish(conn *websocket.Conn, v any) {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(v); err != nil {
		h.log.Debug("websocket write failed", zap.Error(err))
		return
	}
	wsClose(conn)
}

// wsClose sends a normal close frame and gives the peer a short window to
// answer it. The deadline is set on the net.Conn since a reader may be
// blocked concurrently.
func wsClose(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteWait))
	_ = conn.NetConn().SetReadDeadline(time.Now().Add(wsCloseGrace))
}
