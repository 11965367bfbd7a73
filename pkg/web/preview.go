package web

import (
	"errors"
	"time"

	"github.com/dulang/warehouse-verify/pkg/camera"
	"github.com/dulang/warehouse-verify/pkg/hub"
	"github.com/dulang/warehouse-verify/pkg/verification"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const localHub = "hub"

const defaultPreviewInterval = 200 * time.Millisecond

// previewEvent is sent as a text frame whenever the session status
// changes; JPEG frames go out as binary frames in between.
type previewEvent struct {
	Type    string        `json:"type"`
	Session camera.Status `json:"session"`
}

// startPreview gives ws a hub and a pump that snapshots its stream at the
// session's preview interval. Both stop when the workspace closes.
func (s *Server) startPreview(ws *verification.Workspace) {
	interval := ws.Session().Config().PreviewInterval
	if interval <= 0 {
		interval = defaultPreviewInterval
	}

	h := hub.New("preview:"+ws.ID(), s.logger)

	s.mu.Lock()
	s.previews[ws.ID()] = h
	s.mu.Unlock()

	ws.OnClose(func() {
		h.Stop()
		s.mu.Lock()
		delete(s.previews, ws.ID())
		s.mu.Unlock()
	})

	go h.Run(s.ctx)
	go h.Pump(s.ctx, interval, previewSource(ws.Session()))
}

// previewSource alternates status events and frames: a status event
// whenever state, facing or photo count changed, a frame otherwise.
func previewSource(sess *camera.Session) func() (hub.Message, bool) {
	var last camera.Status
	first := true
	return func() (hub.Message, bool) {
		st := sess.Status()
		if first || st.State != last.State || st.Facing != last.Facing || st.Photos != last.Photos {
			first = false
			last = st
			msg, err := hub.EncodeJSON(previewEvent{Type: "status", Session: st})
			return msg, err == nil
		}
		if !st.HasStream() {
			return hub.Message{}, false
		}
		frame, err := sess.PreviewFrame()
		if err != nil {
			return hub.Message{}, false
		}
		return hub.NewBinaryMessage(frame), true
	}
}

// loadPreview rejects unknown workspaces before the upgrade.
func (s *Server) loadPreview(c *fiber.Ctx) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	h, ok := s.previews[ws.ID()]
	s.mu.Unlock()
	if !ok {
		return verification.ErrWorkspaceNotFound
	}
	c.Locals(localHub, h)
	return c.Next()
}

func (s *Server) handlePreviewWS(c *websocket.Conn) {
	h, ok := c.Locals(localHub).(*hub.Hub)
	if !ok {
		c.Close()
		return
	}
	client, err := hub.NewClient(h, c)
	if err != nil {
		if !errors.Is(err, hub.ErrStopped) {
			s.logger.Warn("preview client", "error", err)
		}
		c.Close()
		return
	}
	client.Run()
}
