package gateway

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/platefeed/stories/internal/viewer"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The surrounding app serves the UI; cross-origin policy is its
	// concern, not this subsystem's.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleViewerSocket bridges one websocket to the viewer's session: JSON
// commands in, playback events out. The session survives the socket; a
// reconnecting client picks up where the overlay state stands.
func (s *Server) handleViewerSocket(c echo.Context) error {
	user := currentUser(c)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	sess := s.Registry.Acquire(user.ID)
	s.Logger.Info("Viewer socket attached", "viewer_id", user.ID)

	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			case ev := <-sess.Events():
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteJSON(ev); err != nil {
					s.Logger.Debug("Viewer socket write failed", "viewer_id", user.ID, "error", err)
					return
				}
			}
		}
	}()

	for {
		var cmd viewer.Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.Logger.Debug("Viewer socket read failed", "viewer_id", user.ID, "error", err)
			}
			break
		}
		sess.Send(cmd)
	}

	close(stop)
	_ = conn.Close()
	<-done
	s.Logger.Info("Viewer socket detached", "viewer_id", user.ID)
	return nil
}
