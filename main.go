package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"parley-signaling-server/config"
	"parley-signaling-server/domain"
	"parley-signaling-server/hub"
	"parley-signaling-server/metrics"
	"parley-signaling-server/protocol"
	"parley-signaling-server/registry"
	ws "parley-signaling-server/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}
	cfg := config.Load()
	setupLogger(cfg.LogLevel)

	transport := hub.New()
	nicknames := registry.NewNicknameRegistry()
	rooms := registry.NewRoomRegistry(cfg.RoomCodeLength, cfg.DedupeJoins)
	handler := protocol.NewHandler(nicknames, rooms, transport)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler(transport, handler))
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/stats", statsHandler(transport))
	mux.Handle("/metrics", metrics.Handler())

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllow,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: c.Handler(mux),
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func setupLogger(levelName string) {
	level := slog.LevelInfo
	switch levelName {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func wsHandler(transport *hub.Hub, handler *protocol.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("upgrade error", "error", err)
			return
		}

		wsConn := ws.NewConn(domain.ConnID(uuid.NewString()), conn, transport, handler)
		wsConn.Start()
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func statsHandler(transport *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms, clients := transport.Stats()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"rooms": rooms, "clients": clients})
	}
}
