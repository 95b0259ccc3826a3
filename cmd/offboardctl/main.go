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

	"offboardctl/internal/api"
	"offboardctl/internal/commander"
	"offboardctl/internal/config"
	"offboardctl/internal/link"
	"offboardctl/internal/logging"
	"offboardctl/internal/px4"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logging.Setup(cfg.LogLevel, cfg.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lnk, err := link.Dial(link.Config{
		Address:  cfg.Link.Address,
		SystemID: cfg.Link.SystemID,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Str("address", cfg.Link.Address).Msg("mavlink link")
	}
	defer lnk.Close()

	takeoff := px4.TrajectorySetpoint{
		X:   float32(cfg.Commander.Takeoff.X),
		Y:   float32(cfg.Commander.Takeoff.Y),
		Z:   float32(cfg.Commander.Takeoff.Z),
		Yaw: float32(cfg.Commander.Takeoff.Yaw),
	}
	cmd, err := commander.New(commander.Config{
		Period:      cfg.Commander.Period,
		WarmupTicks: cfg.Commander.WarmupTicks,
		Takeoff:     &takeoff,
	}, lnk, log)
	if err != nil {
		log.Fatal().Err(err).Msg("commander")
	}

	go lnk.Run(ctx, cmd)

	srv := &http.Server{
		Addr:    cfg.API.Listen,
		Handler: api.NewServer(cmd, log).Handler(),
	}
	go func() {
		log.Info().Str("addr", cfg.API.Listen).Msg("target pose api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("api server")
		}
	}()

	log.Info().Msg("starting offboard commander")
	cmd.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	log.Info().Msg("shutdown complete")
}
