// Package app assembles the repositories, services, handlers and background
// workers into a running application.
package app

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/luckytwelve/platform/internal/auth"
	"github.com/luckytwelve/platform/internal/barcode"
	"github.com/luckytwelve/platform/internal/bet"
	"github.com/luckytwelve/platform/internal/clock"
	"github.com/luckytwelve/platform/internal/handler"
	adminhandler "github.com/luckytwelve/platform/internal/handler/admin"
	"github.com/luckytwelve/platform/internal/infra"
	"github.com/luckytwelve/platform/internal/ledger"
	"github.com/luckytwelve/platform/internal/repository"
	"github.com/luckytwelve/platform/internal/round"
	"github.com/luckytwelve/platform/internal/scheduler"
	"github.com/luckytwelve/platform/internal/service"
	"github.com/luckytwelve/platform/internal/settings"
	"github.com/luckytwelve/platform/internal/settlement"
)

// App holds the wired components.
type App struct {
	Router    chi.Router
	Scheduler *scheduler.Scheduler
}

// Build wires the whole application from config, pool and logger.
func Build(cfg *infra.Config, pool *pgxpool.Pool, logger *slog.Logger) (*App, error) {
	accessExpiry, err := time.ParseDuration(cfg.AccessTokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("parse access token expiry: %w", err)
	}
	refreshExpiry, err := time.ParseDuration(cfg.RefreshTokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("parse refresh token expiry: %w", err)
	}
	jwtMgr := auth.NewManager(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, accessExpiry, refreshExpiry)

	codec, err := barcode.NewCodec(cfg.BarcodeSecret)
	if err != nil {
		return nil, fmt.Errorf("barcode codec: %w", err)
	}

	clk := clock.RealClock{}

	// Repositories
	userRepo := repository.NewUserRepository()
	walletLogRepo := repository.NewWalletLogRepository()
	outboxRepo := repository.NewOutboxRepository()
	roundRepo := repository.NewRoundRepository()
	slipRepo := repository.NewSlipRepository()
	tokenRepo := repository.NewTokenRepository()
	auditRepo := repository.NewAuditRepository()

	// Core engines
	ledgerEngine := ledger.NewEngine(userRepo, walletLogRepo, outboxRepo)
	settingsStore := settings.NewStore(pool)
	settleEngine := settlement.NewEngine(pool, roundRepo, slipRepo, outboxRepo, auditRepo, logger)
	selector := settlement.NewSelector(rand.New(rand.NewSource(time.Now().UnixNano())))
	roundManager := round.NewManager(pool, roundRepo, settingsStore, clk, logger)

	// Services
	authSvc := service.NewAuthService(pool, userRepo, tokenRepo, auditRepo, jwtMgr, logger)
	walletSvc := service.NewWalletService(pool, userRepo, auditRepo, ledgerEngine, logger)
	betSvc := bet.NewService(pool, slipRepo, roundRepo, auditRepo, ledgerEngine, settingsStore, codec, clk, logger)

	sched := scheduler.New(pool, roundManager, roundRepo, settleEngine, selector, settingsStore, clk, logger)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, pool)
	gameHandler := handler.NewGameHandler(pool, roundRepo, roundManager, betSvc, settingsStore)
	betHandler := handler.NewBetHandler(betSvc)
	walletHandler := handler.NewWalletHandler(pool, walletLogRepo)

	// Admin handlers
	gamesAdmin := adminhandler.NewGamesHandler(pool, roundRepo, settleEngine)
	usersAdmin := adminhandler.NewUsersHandler(authSvc, walletSvc)
	settingsAdmin := adminhandler.NewSettingsHandler(settingsStore)

	// Router
	r := chi.NewRouter()
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORS(cfg.CORSAllowedOrigins))
	r.Use(handler.JSONContentType)

	r.Get("/health", handler.HealthHandler(pool))

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh-token", authHandler.Refresh)
		})
		r.Route("/games", func(r chi.Router) {
			r.Get("/current", gameHandler.Current)
			r.Get("/by-date", gameHandler.ByDate)
			r.Get("/recent-results", gameHandler.RecentResults)
			r.Get("/recent-winners", gameHandler.RecentWinners)
		})
		r.Get("/settings/public", gameHandler.PublicSettings)
		r.Get("/bets/result/{identifier}", betHandler.Result)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate(jwtMgr, userRepo, pool))

			r.Post("/auth/logout", authHandler.Logout)

			r.Route("/wallet", func(r chi.Router) {
				r.Get("/balance", walletHandler.Balance)
				r.Get("/transactions", walletHandler.Transactions)
			})

			r.Route("/bets", func(r chi.Router) {
				r.Post("/place", betHandler.Place)
				r.Post("/cancel/{identifier}", betHandler.Cancel)
				r.Post("/claim", betHandler.Claim)
				r.Get("/me", betHandler.Mine)
			})

			// Admin routes
			r.Route("/admin", func(r chi.Router) {
				r.Use(auth.RequireStaff())

				r.Route("/games", func(r chi.Router) {
					r.Get("/live-settlement", gamesAdmin.LiveSettlement)
					r.Post("/{gameId}/settle", gamesAdmin.Settle)
				})

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireAdmin())

					r.Route("/users", func(r chi.Router) {
						r.Get("/", usersAdmin.List)
						r.Get("/login-history", usersAdmin.LoginHistory)
						r.Get("/{id}", usersAdmin.Get)
						r.Post("/{id}/wallet", usersAdmin.AdjustWallet)
						r.Post("/{id}/kill-sessions", usersAdmin.KillSessions)
						r.Post("/{id}/reset-password", usersAdmin.ResetPassword)
						r.Put("/{id}/status", usersAdmin.SetStatus)
					})

					r.Route("/settings", func(r chi.Router) {
						r.Get("/", settingsAdmin.List)
						r.Put("/", settingsAdmin.Update)
					})
				})
			})
		})
	})

	return &App{Router: r, Scheduler: sched}, nil
}
