package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pinco/config"
	"pinco/internal/auth"
	"pinco/internal/authapi"
	"pinco/internal/comments"
	"pinco/internal/db"
	"pinco/internal/health"
	"pinco/internal/logs"
	"pinco/internal/middleware"
	"pinco/internal/notify"
	"pinco/internal/repo"
	"pinco/internal/sites"
	"pinco/internal/storage"
	"pinco/internal/tenant"
	"pinco/internal/users"
	"pinco/internal/widget"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type App struct {
	cfg        *config.Config
	db         *gorm.DB
	Router     *mux.Router
	httpServer *http.Server

	dispatcher *notify.Dispatcher

	ctx    context.Context
	cancel context.CancelFunc
}

func (a *App) Initialize(cfg *config.Config) {
	a.cfg = cfg

	/* 1) Логи */
	logs.Init(logs.Options{
		Level:  a.cfg.Logging.Level,
		Format: a.cfg.Logging.Format,
		File:   a.cfg.Logging.File,
	})

	/* 2) DB */
	d, err := db.Open(a.cfg.Database.Driver, a.cfg.Database.DSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	a.db = d
	if err := db.Migrate(a.db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	/* 3) Хранилища */
	us := repo.NewUserStore(a.db)
	ss := repo.NewSiteStore(a.db)
	ms := repo.NewMembershipStore(a.db)
	cs := repo.NewCommentStore(a.db)

	/* 4) Ядро доступа */
	codec := auth.NewTokenCodec(a.cfg.Auth.Secret, a.cfg.Auth.TokenTTL)
	secrets := auth.NewSecretTokens(us)
	invites := auth.NewInvites(a.cfg.Auth.Secret, a.cfg.Auth.InviteTTL, ms, us)
	gate := auth.NewMiddleware(codec, ms, a.cfg.Auth.CookieName)
	siteGate := tenant.NewResolver(ss)

	/* 5) Уведомления: почтовый консьюмер поверх очереди событий */
	a.dispatcher = notify.NewDispatcher(notify.NewMailer(a.cfg), 64)

	shots := storage.NewScreenshots(a.cfg.Storage.ScreenshotDir, a.cfg.Storage.PublicBaseURL)

	/* 6) Router + middleware */
	a.Router = mux.NewRouter().StrictSlash(true)
	a.Router.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.LoggerMW,
	)

	/* 7) Health */
	health.RegisterRoutes(a.Router, a.db) // /healthz, /readyz

	/* 8) Фичи */
	authapi.RegisterRoutes(a.Router, authapi.New(us, ms, codec, secrets, invites, a.cfg.Auth.CookieName))
	sites.RegisterRoutes(a.Router, sites.New(ss), gate)
	users.RegisterRoutes(a.Router, users.New(us, ms, ss, secrets, invites, a.dispatcher, a.cfg.Widget.APIBaseURL), gate)
	comments.RegisterRoutes(a.Router, comments.New(cs, us, ms, shots, a.dispatcher), gate, siteGate)
	widget.RegisterRoutes(a.Router, widget.New(a.cfg.Widget.APIBaseURL), gate)

	// раздача сохранённых скриншотов
	a.Router.PathPrefix("/screenshots/").Handler(
		http.StripPrefix("/screenshots/", http.FileServer(http.Dir(a.cfg.Storage.ScreenshotDir))))

	/* (необязательно) вывести известные маршруты в лог при старте */
	_ = a.Router.Walk(func(rt *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, _ := rt.GetPathTemplate()
		methods, _ := rt.GetMethods()
		if len(methods) == 0 {
			methods = []string{"ANY"}
		}
		log.Printf("route: %-6v %s", methods, path)
		return nil
	})
}

func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return fmt.Errorf("server not initialized")
	}

	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigs
		logs.Logger.Infof("shutdown signal: %s", s)
		a.cancel()
	}()

	// диспетчер живёт на своём контексте: события, опубликованные
	// запросами во время Shutdown, тоже должны доехать
	dctx, dcancel := context.WithCancel(context.Background())
	go a.dispatcher.Run(dctx)

	// Жёсткие таймауты — это важно для production
	a.httpServer = &http.Server{
		Addr:              bind,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logs.Logger.Infof("HTTP listening on %s", bind)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logs.Logger.Fatalf("http server error: %v", err)
		}
	}()

	<-a.ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logs.Logger.Errorf("http shutdown: %v", err)
	}
	dcancel()
	a.dispatcher.Wait() // дождаться доотправки писем
	return nil
}
