package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/accounts"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/admin"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/auth"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/config"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/funding"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/httpserver"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/logging"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/marketdata"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/notifications"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/positions"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/settlement"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/store"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var st store.Store
	if cfg.DBDSN != "" {
		st, err = store.NewPostgresStore(ctx, cfg.DBDSN)
	} else {
		st, err = store.NewFileStore(cfg.DataDir)
	}
	if err != nil {
		logger.Fatal("store init failed", zap.Error(err))
	}
	defer st.Close()

	profiles := marketdata.DefaultProfiles()
	if cfg.MarketProfiles != "" {
		profiles, err = marketdata.LoadProfiles(cfg.MarketProfiles)
		if err != nil {
			logger.Fatal("market profiles failed", zap.Error(err))
		}
	}
	oracle := marketdata.NewSyntheticOracle(profiles)
	policy := settlement.NewDampingPolicy(cfg.ProfitDamping, cfg.LossDamping)

	ledgerSvc := accounts.NewService(st, logger.Named("accounts"))
	positionsSvc := positions.NewService(st, ledgerSvc, oracle, policy, logger.Named("positions"))
	fundingSvc := funding.NewService(st, ledgerSvc, logger.Named("funding"))
	notifySvc := notifications.NewService(st, logger.Named("notifications"))
	authSvc := auth.NewService(ledgerSvc, cfg.JWTIssuer, []byte(cfg.JWTSecret), cfg.JWTTTL, cfg.SignupDemoBalance)

	for _, init := range []func(context.Context) error{
		ledgerSvc.Init, positionsSvc.Init, fundingSvc.Init, notifySvc.Init,
	} {
		if err := init(ctx); err != nil {
			logger.Fatal("service init failed", zap.Error(err))
		}
	}

	bus := marketdata.NewBus()
	marketdata.StartPublisher(ctx, bus, oracle, cfg.QuoteInterval, logger.Named("marketdata"))
	quoteWS := marketdata.NewQuoteWS(bus, cfg.WebSocketOrigin)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		AuthHandler:          auth.NewHandler(authSvc),
		AccountsHandler:      accounts.NewHandler(ledgerSvc),
		PositionsHandler:     positions.NewHandler(positionsSvc),
		FundingHandler:       funding.NewHandler(fundingSvc),
		NotificationsHandler: notifications.NewHandler(notifySvc),
		MarketHandler:        marketdata.NewHandler(oracle, quoteWS),
		AdminHandler:         admin.NewHandler(ledgerSvc, positionsSvc, fundingSvc, notifySvc, logger.Named("admin")),
		AuthService:          authSvc,
		InternalToken:        cfg.InternalToken,
	})
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	logger.Info("server listening", zap.String("addr", cfg.HTTPAddr))
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
