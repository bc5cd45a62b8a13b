package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/pak-it/checkin/app"
	"github.com/pak-it/checkin/config"
	"github.com/pak-it/checkin/database"
	"github.com/pak-it/checkin/httpx"
	"github.com/pak-it/checkin/log"
	"github.com/pak-it/checkin/routes"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	bearerServer, err := httpx.NewBearerServer(db, cfg)
	if err != nil {
		log.Fatal("main.bearer_server:", err)
	}

	handler := routes.Wire(app.New(db, bearerServer, cfg))

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
