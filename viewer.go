package thegrid

// This file contains the websocket endpoint used by remote viewers to watch a
// live copy of the frames sent to the grid

import (
	"net/http"
	"time"

	"golang.org/x/net/websocket"
)

var viewerWriteTimeout = 2 * time.Second

type wsViewer struct {
	ws *websocket.Conn
}

func (v *wsViewer) Send(msg string) (errGo error) {
	v.ws.SetWriteDeadline(time.Now().Add(viewerWriteTimeout))
	return websocket.Message.Send(v.ws, msg)
}

func (v *wsViewer) Close() (errGo error) {
	return v.ws.Close()
}

// ViewerHandler accepts websocket viewers and subscribes them to the
// broadcaster until they disconnect.  Viewers are not expected to send
// anything, reads are only used to notice that the viewer has gone
func ViewerHandler(b *Broadcaster) http.Handler {
	return websocket.Server{
		Handler: func(ws *websocket.Conn) {
			id, err := b.Subscribe(&wsViewer{ws: ws})
			if err != nil {
				logger.Debug("viewer refused", "error", err.Error())
				return
			}
			defer b.Unsubscribe(id)

			msg := ""
			for {
				if errGo := websocket.Message.Receive(ws, &msg); errGo != nil {
					return
				}
			}
		},
	}
}
