package main

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"gridduel/internal/arena"
	"gridduel/internal/config"
	"gridduel/internal/logging"
	"gridduel/internal/ws"
)

func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logging.Init(logCfg)
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("load server config failed")
	}

	wsServer := ws.NewServer()
	coord := arena.New(wsServer, cfg.RematchDelay())
	wsServer.SetDispatcher(coord)

	r := newRouter(cfg, coord, wsServer)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}
