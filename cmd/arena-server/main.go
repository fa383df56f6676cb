package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"ttt-arena/internal/archive"
	appcfg "ttt-arena/internal/config"
	"ttt-arena/internal/httpapi"
	"ttt-arena/internal/matchmaking"
	"ttt-arena/internal/msgcat"
	"ttt-arena/internal/obslog"
	"ttt-arena/internal/rating"
	"ttt-arena/internal/room"
	"ttt-arena/internal/session"
	"ttt-arena/internal/wsgate"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = obslog.L().Sync() }()

	cat, err := msgcat.New(cfg.MsgOverrideDir)
	if err != nil {
		log.Fatalf("message catalog error: %v", err)
	}

	sessions := session.NewRegistry()
	rooms := room.NewStore()
	queue := matchmaking.NewQueue()

	opts := []wsgate.Option{wsgate.WithAllowedOrigins(cfg.AllowedOrigins)}

	var lb httpapi.LeaderboardSource
	if cfg.RedisURL != "" {
		ratings, err := rating.NewStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("rating store init error: %v", err)
		}
		defer ratings.Close()
		opts = append(opts, wsgate.WithRatingSink(ratings))
		lb = ratings
		obslog.L().Info("rating_store_enabled")
	}
	if cfg.DatabaseURL != "" {
		repo, err := archive.NewRepository(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("archive init error: %v", err)
		}
		defer repo.Close()
		opts = append(opts, wsgate.WithResultSink(repo))
		obslog.L().Info("archive_enabled")
	}

	gw := wsgate.New(sessions, rooms, queue, cat, opts...)
	api := httpapi.NewServer(rooms, sessions, queue, lb)

	mux := http.NewServeMux()
	mux.Handle("/ws", gw)
	wsSrv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	apiSrv := &fasthttp.Server{Handler: api.Handler, Name: "ttt-arena"}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		obslog.L().Info("ws_listening", zap.String("addr", cfg.ListenAddr))
		if err := wsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			obslog.L().Error("ws_server_error", zap.Error(err))
			stop()
		}
	}()
	go func() {
		obslog.L().Info("api_listening", zap.String("addr", cfg.APIAddr))
		if err := apiSrv.ListenAndServe(cfg.APIAddr); err != nil {
			obslog.L().Error("api_server_error", zap.Error(err))
			stop()
		}
	}()

	// sweeps keep abandoned rooms and queue entries bounded
	go func() {
		t := time.NewTicker(cfg.SweepInterval)
		defer t.Stop()
		for {
			select {
			case <-rootCtx.Done():
				return
			case <-t.C:
				if removed := rooms.SweepStale(cfg.RoomMaxAge); len(removed) > 0 {
					obslog.L().Info("rooms_swept", zap.Strings("codes", removed))
				}
				if dropped := queue.SweepStale(cfg.QueueMaxAge); dropped > 0 {
					obslog.L().Info("queue_swept", zap.Int("dropped", dropped))
				}
			}
		}
	}()

	<-rootCtx.Done()
	obslog.L().Info("shutting_down")

	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := wsSrv.Shutdown(shCtx); err != nil {
		obslog.L().Warn("ws_shutdown_error", zap.Error(err))
	}
	if err := apiSrv.ShutdownWithContext(shCtx); err != nil {
		obslog.L().Warn("api_shutdown_error", zap.Error(err))
	}
}
