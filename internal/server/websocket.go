package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/goevery/canvas-gateway/internal/auth"
	"github.com/goevery/canvas-gateway/internal/gateway"
	"github.com/goevery/canvas-gateway/internal/protocol"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

type WebSocketServer struct {
	logger        *zap.Logger
	upgrader      *websocket.Upgrader
	registry      gateway.Registry
	presence      *gateway.Presence
	normalizer    *protocol.Normalizer
	router        *Router
	authenticator *auth.Authenticator
	readLimit     int64
}

func NewWebSocketServer(
	logger *zap.Logger,
	upgrader *websocket.Upgrader,
	registry gateway.Registry,
	presence *gateway.Presence,
	normalizer *protocol.Normalizer,
	router *Router,
	authenticator *auth.Authenticator,
	maxFrameBytes int,
) *WebSocketServer {
	return &WebSocketServer{
		logger:        logger,
		upgrader:      upgrader,
		registry:      registry,
		presence:      presence,
		normalizer:    normalizer,
		router:        router,
		authenticator: authenticator,
		// Backstop well above the protocol limit so oversized frames
		// reach the normalizer and get an error reply instead of a
		// silent close.
		readLimit: int64(maxFrameBytes) * 4,
	}
}

func (s *WebSocketServer) Register(router *mux.Router) {
	router.HandleFunc("/ws", s.serve)
}

func (s *WebSocketServer) serve(w http.ResponseWriter, r *http.Request) {
	var subject string

	if s.authenticator != nil {
		authentication, err := s.authenticator.AuthenticateToken(r.URL.Query().Get("token"))
		if err != nil {
			s.logger.Warn("rejecting unauthenticated websocket upgrade", zap.Error(err))
			http.Error(w, "unauthorized", http.StatusUnauthorized)

			return
		}

		subject = authentication.Subject
	}

	socket, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))

		return
	}

	id, err := gonanoid.New()
	if err != nil {
		s.logger.Error("failed to generate connection id", zap.Error(err))
		socket.Close()

		return
	}

	conn := gateway.NewConnection(id, subject)
	s.registry.Register(conn)

	s.logger.Info("websocket connection established",
		zap.String("connectionId", conn.Id))

	go s.writePump(socket, conn)
	s.readLoop(socket, conn)
}

func (s *WebSocketServer) readLoop(socket *websocket.Conn, conn *gateway.Connection) {
	defer func() {
		roomId, userId, left := s.registry.Disconnect(conn)
		if left {
			s.presence.Leave(conn, roomId, userId)
		}

		s.logger.Info("websocket connection closed",
			zap.String("connectionId", conn.Id))
	}()

	socket.SetReadLimit(s.readLimit)

	for {
		_, raw, err := socket.ReadMessage()
		if err != nil {
			return
		}

		conn.Touch(time.Now())

		envelope, err := s.normalizer.Normalize(raw, conn.Room())
		if err != nil {
			errorReply := s.router.errorEnvelope(err)
			s.reply(conn, errorReply)

			continue
		}

		if reply := s.router.Route(conn, envelope); reply != nil {
			s.reply(conn, *reply)
		}
	}
}

func (s *WebSocketServer) reply(conn *gateway.Connection, envelope gateway.Envelope) {
	frame, err := json.Marshal(envelope)
	if err != nil {
		s.logger.Error("failed to serialize reply", zap.Error(err))

		return
	}

	select {
	case conn.Send <- frame:
	default:
		s.logger.Warn("dropping reply, send buffer is full",
			zap.String("connectionId", conn.Id))
	}
}

func (s *WebSocketServer) writePump(socket *websocket.Conn, conn *gateway.Connection) {
	defer socket.Close()

	for {
		select {
		case frame := <-conn.Send:
			if err := socket.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-conn.Done():
			socket.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

			return
		}
	}
}
