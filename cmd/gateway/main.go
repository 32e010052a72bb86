package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/goevery/canvas-gateway/internal/auth"
	"github.com/goevery/canvas-gateway/internal/bridge"
	"github.com/goevery/canvas-gateway/internal/gateway"
	"github.com/goevery/canvas-gateway/internal/handler"
	"github.com/goevery/canvas-gateway/internal/protocol"
	"github.com/goevery/canvas-gateway/internal/server"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type App struct {
	logger          *zap.Logger
	settings        Settings
	websocketServer *server.WebSocketServer
	restServer      *server.RESTServer
	supervisor      *gateway.Supervisor
	eventBridge     *bridge.Bridge
}

func NewApp(logger *zap.Logger, settings Settings) *App {
	websocketUpgrader := &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// The gateway is origin-agnostic; access control happens at
		// the token level when a JWT secret is configured.
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	var authenticator *auth.Authenticator
	if settings.JWTSecret != "" {
		authenticator = auth.NewAuthenticator(settings.JWTSecret)
	}

	registry := gateway.NewInMemoryRegistry(
		logger,
		settings.RateLimitBurst,
		time.Duration(settings.RateLimitRefillMs)*time.Millisecond,
	)
	dispatcher := gateway.NewDispatcher(logger, registry)
	presence := gateway.NewPresence(dispatcher)
	supervisor := gateway.NewSupervisor(
		logger,
		registry,
		presence,
		time.Duration(settings.HeartbeatIntervalMs)*time.Millisecond,
		time.Duration(settings.HeartbeatToleranceMs)*time.Millisecond,
	)

	normalizer := protocol.NewNormalizer(settings.MaxPayloadBytes)

	joinHandler := handler.NewJoinHandler(registry, presence)
	leaveHandler := handler.NewLeaveHandler(registry, presence)
	pingHandler := handler.NewPingHandler()
	publishHandler := handler.NewPublishHandler(dispatcher)

	router := server.NewRouter(
		logger,
		joinHandler,
		leaveHandler,
		pingHandler,
		publishHandler,
	)

	websocketServer := server.NewWebSocketServer(
		logger,
		websocketUpgrader,
		registry,
		presence,
		normalizer,
		router,
		authenticator,
		settings.MaxPayloadBytes,
	)
	restServer := server.NewRESTServer(logger, registry)

	eventBridge := bridge.New(
		logger,
		&http.Client{
			Timeout: time.Duration(settings.EventRequestTimeoutMs) * time.Millisecond,
		},
		settings.EventServiceURL,
		settings.ServiceKey,
		time.Duration(settings.EventPollMs)*time.Millisecond,
		time.Duration(settings.EventBackoffMs)*time.Millisecond,
		dispatcher,
	)

	return &App{
		logger,
		settings,
		websocketServer,
		restServer,
		supervisor,
		eventBridge,
	}
}

func (a *App) run(ctx context.Context) {
	notifyCtx, notifyCtxCancel := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer notifyCtxCancel()

	go a.supervisor.Run(notifyCtx)
	go a.eventBridge.Run(notifyCtx)

	address := fmt.Sprintf("%s:%d", a.settings.Host, a.settings.Port)

	router := mux.NewRouter().
		PathPrefix(a.settings.BasePath).
		Subrouter()

	a.websocketServer.Register(router)
	a.restServer.Register(router)

	httpServer := &http.Server{
		Addr:    address,
		Handler: router,
	}

	a.logger.Info("starting http server",
		zap.String("address", address))

	go func() {
		err := httpServer.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("failed to start http server",
				zap.Error(err))
		}
	}()

	<-notifyCtx.Done()

	a.logger.Info("stopping http server")

	shutdownCtx, shutdownCtxCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCtxCancel()

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Fatal("http server shutdown failed",
			zap.Error(err))
	}

	a.logger.Info("http server stopped")
}

func main() {
	ctx := context.Background()

	var settings Settings
	_, err := env.UnmarshalFromEnviron(&settings)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to parse settings from environment:", err)
		os.Exit(1)
	}

	logger, err := buildZapLogger(settings.LogEncoding)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	app := NewApp(logger, settings)
	app.run(ctx)
}
