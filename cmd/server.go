package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/delarsify/sanjeevani/internal/audit"
	"github.com/delarsify/sanjeevani/internal/auth"
	"github.com/delarsify/sanjeevani/internal/chat"
	"github.com/delarsify/sanjeevani/internal/config"
	"github.com/delarsify/sanjeevani/internal/db"
	"github.com/delarsify/sanjeevani/internal/live"
	"github.com/delarsify/sanjeevani/internal/llm"
	"github.com/delarsify/sanjeevani/internal/notifications"
	"github.com/delarsify/sanjeevani/internal/pages"
	"github.com/delarsify/sanjeevani/internal/posts"
	"github.com/delarsify/sanjeevani/internal/server"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the SANJEEVANI web server",
	Long:  `Starts the web server with the marketing pages, sign-in, the live community view and the JSON API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = serverPort
		}
		log := logrus.WithField("component", "cmd.server")

		secret := cfg.Auth.CookieSecret
		if secret == "" {
			secret, err = config.GenerateSecret()
			if err != nil {
				return err
			}
			log.Warn("auth.cookie_secret is not set; using an ephemeral secret, sessions will not survive a restart")
		}

		llmProvider, err := createLLMProviderFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating LLM provider: %w", err)
		}
		if llmProvider == nil {
			log.Info("assistant provider disabled; the chat panel will report the assistant as unavailable")
		}

		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		srv := server.New(server.Config{
			Port:     cfg.Server.Port,
			AllowAll: cfg.Server.AllowAllOrigins,
		})

		sweeper, err := registerAllRoutes(srv, database, cfg, []byte(secret), llmProvider)
		if err != nil {
			return err
		}
		defer sweeper.Stop()

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			log.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Warn("graceful shutdown failed")
			}
		}()

		log.WithFields(logrus.Fields{
			"version":   Version,
			"port":      cfg.Server.Port,
			"database":  cfg.DatabasePath(),
			"assistant": cfg.Assistant.Provider,
			"google":    cfg.Auth.Google.Enabled(),
		}).Info("sanjeevani server starting")

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

// registerAllRoutes wires every feature onto the server's router and starts
// the session sweeper, which the caller stops.
func registerAllRoutes(srv *server.Server, database *db.DB, cfg *config.Config, secret []byte, llmProvider llm.Provider) (*auth.Sweeper, error) {
	r := srv.Router()

	// Audit trail
	auditStore := audit.NewStore(database)

	// Auth
	authStore := auth.NewStore(database)
	authSvc := auth.NewService(authStore, auth.NewBroker(), auditStore, auth.Config{
		SessionTTL:  cfg.Auth.SessionTTL,
		EmailSignIn: cfg.Auth.EmailSignIn,
	})
	jar := auth.NewCookieJar(secret, cfg.Server.SecureCookies, cfg.Auth.SessionTTL)
	resolver := auth.NewResolver(authSvc, jar)

	var google *auth.GoogleProvider
	if g := cfg.Auth.Google; g.Enabled() {
		google = auth.NewGoogleProvider(g.ClientID, g.ClientSecret, g.RedirectURL)
	}
	auth.RegisterRoutes(r, auth.Routes{
		Service:     authSvc,
		Jar:         jar,
		Google:      google,
		SignInRoute: cfg.Auth.SignInRoute,
		AfterSignIn: "/community",
	})
	audit.RegisterRoutes(r, auditStore, resolver)

	// Notifications
	notifStore := notifications.NewStore(database)
	hub := notifications.NewHub()
	dispatcher := notifications.NewDispatcher(notifStore, hub)
	notifications.RegisterRoutes(r, notifStore, resolver)

	// Posts
	postSvc := posts.NewService(posts.NewStore(database), posts.NewFeed(), auditStore)
	renderer := posts.NewRenderer()
	posts.RegisterRoutes(r, postSvc, renderer, resolver)

	// Marketing pages and sign-in
	if err := pages.RegisterRoutes(r, pages.Site{
		MascotMessages: cfg.Mascot.Messages,
		EmailSignIn:    cfg.Auth.EmailSignIn,
		GoogleSignIn:   google != nil,
	}); err != nil {
		return nil, fmt.Errorf("registering pages: %w", err)
	}

	// Live community view and widgets
	lv, err := live.New(live.Config{
		Clients:         resolver,
		Hub:             hub,
		Notifier:        dispatcher,
		Chat:            chat.NewStore(database),
		Assistant:       chat.NewAssistant(llmProvider, cfg.Assistant.Model),
		Posts:           postSvc,
		Renderer:        renderer,
		MascotMessages:  cfg.Mascot.Messages,
		SignInRoute:     cfg.Auth.SignInRoute,
		AllowAllOrigins: cfg.Server.AllowAllOrigins,
	})
	if err != nil {
		return nil, fmt.Errorf("creating live views: %w", err)
	}
	lv.RegisterRoutes(r)

	sweeper := auth.NewSweeper(authSvc, cfg.Auth.SweepInterval)
	if err := sweeper.Start(); err != nil {
		return nil, err
	}
	return sweeper, nil
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Port to listen on (overrides server.port)")
	rootCmd.AddCommand(serverCmd)
}
