// Package webapi provides a web API for the moderation engine: checking messages without side effects
// and reading moderation stats.
package webapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/tg-moderator/app/bot"
)

//go:generate moq --out mocks/moderator.go --pkg mocks --with-resets --skip-ensure . Moderator

const defaultStatsTop = 5

// Server is a web API server.
type Server struct {
	Config
}

// Config defines server parameters
type Config struct {
	Version    string    // version to show in /ping
	ListenAddr string    // listen address
	Moderator  Moderator // moderation engine
	AuthPasswd string    // basic auth password for user "tg-moderator", no auth if empty
	RateLimit  float64   // max requests per second from a single ip, 50 if 0
}

// Moderator is a moderation engine interface, read-only subset.
type Moderator interface {
	Check(text, userID string) bot.CheckResult
	Stats(top int) bot.Stats
}

// CheckRequest is a body of POST /check
type CheckRequest struct {
	Msg    string `json:"msg"`
	UserID string `json:"user_id"`
}

// NewServer creates a new web API server.
func NewServer(config Config) *Server {
	return &Server{Config: config}
}

// Run starts server and accepts requests, blocks until ctx canceled.
func (s *Server) Run(ctx context.Context) error {
	if s.AuthPasswd != "" {
		log.Printf("[INFO] basic auth enabled for webapi server")
	} else {
		log.Printf("[WARN] basic auth disabled, access to webapi is not protected")
	}

	srv := &http.Server{Addr: s.ListenAddr, Handler: s.routes(), ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown webapi server: %v", err)
		} else {
			log.Printf("[INFO] webapi server stopped")
		}
	}()

	log.Printf("[INFO] start webapi server on %s", s.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to run server: %w", err)
	}
	return nil
}

func (s *Server) routes() http.Handler {
	rateLimit := s.RateLimit
	if rateLimit <= 0 {
		rateLimit = 50
	}
	lmt := tollbooth.NewLimiter(rateLimit, nil)
	lmt.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr"})

	router := routegroup.New(http.NewServeMux())
	router.Use(rest.Recoverer(lgr.Default()), rest.Throttle(1000))
	router.Use(rest.AppInfo("tg-moderator", "umputun", s.Version), rest.Ping)
	router.Use(func(next http.Handler) http.Handler { return tollbooth.LimitHandler(lmt, next) })
	router.Use(rest.SizeLimit(64 * 1024))

	router.Group().Route(func(api *routegroup.Bundle) {
		api.Use(s.authMiddleware(rest.BasicAuthWithUserPasswd("tg-moderator", s.AuthPasswd)))
		api.HandleFunc("POST /check", s.checkHandler) // check a message, no learning
		api.HandleFunc("GET /stats", s.statsHandler)  // warnings, flood and learning stats
	})
	return router
}

// checkHandler handles POST /check request.
// it gets message text and user id from request body and returns toxicity verdict and spam score.
func (s *Server) checkHandler(w http.ResponseWriter, r *http.Request) {
	req := CheckRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.RenderJSON(w, rest.JSON{"error": "can't decode request", "details": err.Error()})
		log.Printf("[WARN] can't decode request: %v", err)
		return
	}
	if strings.TrimSpace(req.Msg) == "" {
		w.WriteHeader(http.StatusBadRequest)
		rest.RenderJSON(w, rest.JSON{"error": "empty message"})
		return
	}
	rest.RenderJSON(w, s.Moderator.Check(req.Msg, req.UserID))
}

// statsHandler handles GET /stats?top=N request, top defaults to 5.
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	top := defaultStatsTop
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			w.WriteHeader(http.StatusBadRequest)
			rest.RenderJSON(w, rest.JSON{"error": "invalid top value", "details": v})
			return
		}
		top = n
	}
	rest.RenderJSON(w, s.Moderator.Stats(top))
}

func (s *Server) authMiddleware(mw func(next http.Handler) http.Handler) func(next http.Handler) http.Handler {
	if s.AuthPasswd == "" {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return mw
}
