package cmd

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pattern-studio/config"
	"pattern-studio/core"
	"pattern-studio/editor"
	"pattern-studio/handlers/api"
	"pattern-studio/handlers/api/drafts"
	"pattern-studio/handlers/api/editors"
	patternsapi "pattern-studio/handlers/api/patterns"
	"pattern-studio/handlers/auth"
	"pattern-studio/handlers/websocket"
	authMiddleware "pattern-studio/middleware"
	"pattern-studio/patterns"
	"pattern-studio/stores"
)

var listenAddress string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the editor HTTP and socket.io server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("listen") {
			cfg.ListenAddr = listenAddress
		}
		if !cmd.Flags().Changed("loglevel") && cfg.LogLevel != "" {
			if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
				logrus.SetLevel(level)
			}
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenAddress, "listen", ":3002", "The address to listen on.")
	rootCmd.AddCommand(serveCmd)
}

type deps struct {
	registry *editor.Registry
	drafts   core.DraftStore
	patterns api.PatternStoreFactory
	live     *websocket.Live
}

func setupRouter(d deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "X-CSRF-Token", "Origin", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authMiddleware.AuthJWT)

		r.Route("/editors", editors.NewHandler(d.registry, d.drafts, d.patterns).Routes)

		r.Route("/drafts", func(r chi.Router) {
			r.Get("/", drafts.HandleListDrafts(d.drafts))
			r.Route("/{key}", func(r chi.Router) {
				r.Get("/", drafts.HandleGetDraft(d.drafts))
				r.Get("/image", drafts.HandleGetDraftImage(d.drafts))
				r.Delete("/", drafts.HandleDeleteDraft(d.drafts))
			})
		})

		r.Route("/patterns", func(r chi.Router) {
			r.Get("/mine", patternsapi.HandleListMine(d.patterns))
			r.Get("/public", patternsapi.HandleListPublic(d.patterns))
			r.Delete("/{id}", patternsapi.HandleDelete(d.patterns))
		})
	})

	if d.live != nil {
		r.Mount("/socket.io/", d.live.Server().ServeHandler(nil))
	}
	return r
}

func serve(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	auth.Init(cfg.JWTSecret)

	store, err := stores.GetStore(ctx, cfg)
	if err != nil {
		return err
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	registry := editor.NewRegistry(cfg.HistoryLimit)
	live := websocket.NewLive(registry)
	registry.OnChange(live.Notify)

	r := setupRouter(deps{
		registry: registry,
		drafts:   store,
		patterns: func(ctx context.Context, token string) core.PatternStore {
			return patterns.NewClient(ctx, cfg.PatternAPIURL, token)
		},
		live: live,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errC := make(chan error, 1)
	logrus.WithField("addr", cfg.ListenAddr).Info("starting server")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	return waitForShutdown(srv, live, errC)
}

func waitForShutdown(srv *http.Server, live *websocket.Live, errC <-chan error) error {
	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(signalC)

	select {
	case err := <-errC:
		logrus.WithField("event", "start server").Error(err)
		return err
	case s := <-signalC:
		logrus.WithField("signal", s.String()).Info("Shutting down...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	live.Close()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	return nil
}
