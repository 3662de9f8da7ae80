// Package websocket pushes editor state to browsers over socket.io.
package websocket

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	socketio "github.com/zishang520/socket.io/v2/socket"

	"pattern-studio/editor"
	"pattern-studio/handlers/auth"
)

var (
	errEditorIDRequired = errors.New("editor id is required")
	errTokenRequired    = errors.New("token is required")
)

// Live is the socket.io server. Clients join an editor's room with
// join-editor(editorId, token[, ack]) and then receive every editor-state.
type Live struct {
	srv      *socketio.Server
	registry *editor.Registry

	mu      sync.RWMutex
	viewers map[string]int // editor id -> joined sockets
}

func NewLive(registry *editor.Registry) *Live {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(1000000)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	opts.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	l := &Live{
		srv:      socketio.NewServer(nil, opts),
		registry: registry,
		viewers:  make(map[string]int),
	}
	l.srv.On("connection", l.onConnection)
	return l
}

func (l *Live) Server() *socketio.Server {
	return l.srv
}

func (l *Live) Close() {
	l.srv.Close(nil)
}

func editorRoom(id string) socketio.Room {
	return socketio.Room("editor:" + id)
}

// Notify sends st to everyone watching the editor.
func (l *Live) Notify(st editor.State) {
	if err := l.srv.To(editorRoom(st.ID)).Emit("editor-state", st); err != nil {
		logrus.WithError(err).WithField("editor_id", st.ID).Warn("Failed to emit editor state")
	}
}

// Viewers returns the number of sockets watching the editor.
func (l *Live) Viewers(editorID string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.viewers[editorID]
}

func (l *Live) onConnection(clients ...any) {
	socket, ok := clients[0].(*socketio.Socket)
	if !ok {
		return
	}
	joined := make(map[string]bool)
	var joinedMu sync.Mutex

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	socket.On("join-editor", func(datas ...any) {
		ack, args := extractAck(datas)
		e, err := l.authorize(args)
		if err != nil {
			logrus.WithError(err).WithField("socket_id", socket.Id()).Warn("Rejected join-editor")
			respondWithAck(socket, ack, "join-editor-ack", errorPayload(err), err)
			return
		}

		socket.Join(editorRoom(e.ID))
		joinedMu.Lock()
		if !joined[e.ID] {
			joined[e.ID] = true
			l.addViewer(e.ID, 1)
		}
		joinedMu.Unlock()

		logrus.WithFields(logrus.Fields{"editor_id": e.ID, "socket_id": socket.Id()}).Info("Socket joined editor")
		respondWithAck(socket, ack, "join-editor-ack", map[string]any{
			"status":  "ok",
			"viewers": l.Viewers(e.ID),
		}, nil)
		_ = socket.Emit("editor-state", e.State())
	})

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	socket.On("leave-editor", func(datas ...any) {
		ack, args := extractAck(datas)
		id, _ := firstString(args)
		socket.Leave(editorRoom(id))
		joinedMu.Lock()
		if joined[id] {
			delete(joined, id)
			l.addViewer(id, -1)
		}
		joinedMu.Unlock()
		respondWithAck(socket, ack, "", map[string]any{"status": "ok"}, nil)
	})

	socket.On("disconnect", func(datas ...any) {
		joinedMu.Lock()
		for id := range joined {
			l.addViewer(id, -1)
		}
		joined = map[string]bool{}
		joinedMu.Unlock()
		socket.RemoveAllListeners("")
	})
}

// authorize checks join-editor arguments: the editor id and a bearer token
// of the editor's owner.
func (l *Live) authorize(args []any) (*editor.Editor, error) {
	id, ok := firstString(args)
	if !ok {
		return nil, errEditorIDRequired
	}
	if len(args) < 2 {
		return nil, errTokenRequired
	}
	token, ok := args[1].(string)
	if !ok || token == "" {
		return nil, errTokenRequired
	}

	claims, err := auth.ParseJWT(token)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	e, err := l.registry.Get(claims.Subject, id)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (l *Live) addViewer(id string, delta int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.viewers[id] += delta
	if l.viewers[id] <= 0 {
		delete(l.viewers, id)
	}
}

func firstString(args []any) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	s, ok := args[0].(string)
	return s, ok && s != ""
}
