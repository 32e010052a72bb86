package server

import (
	"encoding/json"
	"net/http"

	"github.com/goevery/canvas-gateway/internal/gateway"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type healthResponse struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
}

type RESTServer struct {
	logger   *zap.Logger
	registry gateway.Registry
}

func NewRESTServer(
	logger *zap.Logger,
	registry gateway.Registry,
) *RESTServer {
	return &RESTServer{
		logger,
		registry,
	}
}

func (s *RESTServer) Register(router *mux.Router) {
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		rooms, connections := s.registry.Counts()

		w.Header().Set("Content-Type", "application/json")
		err := json.NewEncoder(w).Encode(healthResponse{
			Status:      "ok",
			Rooms:       rooms,
			Connections: connections,
		})
		if err != nil {
			s.logger.Error("failed to encode health response", zap.Error(err))
		}
	}).Methods("GET")
}
