// Package main book exchange API.
//
// @title           BookSwap API
// @version         1.0
// @description     Community book exchange: list books, request them, accept or decline.
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/Shivamsingh4838/bookswap/app/echoServer"
	authctrl "github.com/Shivamsingh4838/bookswap/app/echoServer/controller/auth"
	bookctrl "github.com/Shivamsingh4838/bookswap/app/echoServer/controller/book"
	requestctrl "github.com/Shivamsingh4838/bookswap/app/echoServer/controller/request"
	"github.com/Shivamsingh4838/bookswap/app/echoServer/validation"
	"github.com/Shivamsingh4838/bookswap/config"
	bookrepo "github.com/Shivamsingh4838/bookswap/repository/book"
	imagerepo "github.com/Shivamsingh4838/bookswap/repository/image"
	"github.com/Shivamsingh4838/bookswap/repository/memory"
	requestrepo "github.com/Shivamsingh4838/bookswap/repository/request"
	userrepo "github.com/Shivamsingh4838/bookswap/repository/user"
	authsvc "github.com/Shivamsingh4838/bookswap/service/auth"
	booksvc "github.com/Shivamsingh4838/bookswap/service/book"
	"github.com/Shivamsingh4838/bookswap/service/enrich"
	requestsvc "github.com/Shivamsingh4838/bookswap/service/request"
	"github.com/Shivamsingh4838/bookswap/util/database"
	"github.com/Shivamsingh4838/bookswap/util/metrics"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bookswap",
		Short:         "Book exchange API server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	migrate := &cobra.Command{Use: "migrate", Short: "Apply or roll back schema migrations"}
	migrate.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, log, err := setup()
				if err != nil {
					return err
				}
				if err := database.MigrateUp(cfg.DatabaseURL); err != nil {
					log.Error("migrate up failed", "err", err)
					return err
				}
				log.Info("migrations applied")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations (default 1 step)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, log, err := setup()
				if err != nil {
					return err
				}
				steps := 1
				if len(args) == 1 {
					steps, err = strconv.Atoi(args[0])
					if err != nil || steps <= 0 {
						return fmt.Errorf("invalid steps %q", args[0])
					}
				}
				if err := database.MigrateDown(cfg.DatabaseURL, steps); err != nil {
					log.Error("migrate down failed", "err", err)
					return err
				}
				log.Info("migrations rolled back", "steps", steps)
				return nil
			},
		},
	)

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, log, err := setup()
				if err != nil {
					return err
				}
				return serve(cmd.Context(), cfg, log)
			},
		},
		migrate,
		&cobra.Command{
			Use:   "reconcile",
			Short: "Mark books unavailable when one of their requests is accepted",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, log, err := setup()
				if err != nil {
					return err
				}
				ctx := context.Background()
				st, err := openStore(ctx, cfg)
				if err != nil {
					log.Error("store open failed", "err", err)
					return err
				}
				defer st.close()

				n, err := requestsvc.NewReconciler(st.requests, log).Reconcile(ctx)
				if err != nil {
					log.Error("reconcile failed", "err", err)
					return err
				}
				log.Info("reconcile done", "updated", n)
				return nil
			},
		},
	)
	return root
}

func setup() (config.App, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		return cfg, nil, err
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(log)
	return cfg, log, nil
}

type store struct {
	users    userrepo.Repo
	books    bookrepo.Repo
	requests requestrepo.Repo
	ping     func(context.Context) error
	close    func()
}

func openStore(ctx context.Context, cfg config.App) (*store, error) {
	if cfg.StoreDriver == config.DriverMemory {
		m := memory.New()
		return &store{
			users:    m.Users(),
			books:    m.Books(),
			requests: m.Requests(),
			ping:     m.Ping,
			close:    func() {},
		}, nil
	}

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return &store{
		users:    userrepo.New(db),
		books:    bookrepo.New(db),
		requests: requestrepo.New(db),
		ping:     db.Ping,
		close:    db.Close,
	}, nil
}

func serve(ctx context.Context, cfg config.App, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return err
	}
	defer st.close()

	images, err := imagerepo.New(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		log.Error("upload dir", "err", err)
		return err
	}

	// services
	enr := enrich.New(st.users, st.books)
	as := authsvc.New(st.users, cfg.JWTSecret, cfg.JWTTTL)
	bs := booksvc.New(st.books, enr)
	rs := requestsvc.New(st.requests, st.books, enr)

	// controllers
	authC := &authctrl.Controller{Svc: as, Log: log}
	bookC := &bookctrl.Controller{Svc: bs, Images: images, Log: log}
	requestC := &requestctrl.Controller{Svc: rs, Log: log}

	// echo
	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()
	echoServer.RegisterMiddlewares(e, log)

	e.GET("/health", func(c echo.Context) error {
		if err := st.ping(c.Request().Context()); err != nil {
			log.Warn("health check failed", "err", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status":  "unavailable",
				"message": "store unreachable",
			})
		}
		return c.JSON(http.StatusOK, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.Static("/uploads", cfg.UploadDir)

	echoServer.Register(e, echoServer.C{
		Auth:        authC,
		Book:        bookC,
		Request:     requestC,
		Verifier:    as,
		AuthLimiter: echoServer.NewIPRateLimiter(cfg.AuthRateRPS, cfg.AuthRateBurst),
		Log:         log,
	})

	log.Info("starting server", "port", cfg.Port, "store", cfg.StoreDriver, "env", cfg.Env)

	errCh := make(chan error, 1)
	go func() { errCh <- e.Start(":" + cfg.Port) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		log.Error("server stopped", "err", err)
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	return e.Shutdown(shutdownCtx)
}
