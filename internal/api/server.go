package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/betline/betline/internal/api/dto"
	"github.com/betline/betline/internal/auth"
	"github.com/betline/betline/internal/betting/engine"
	betrepo "github.com/betline/betline/internal/betting/repo"
	oddsrepo "github.com/betline/betline/internal/odds/repo"
	promorepo "github.com/betline/betline/internal/promo/repo"
	supportrepo "github.com/betline/betline/internal/support/repo"
	usersrepo "github.com/betline/betline/internal/users/repo"
	"github.com/betline/betline/pkg/contracts/events"
)

// BetPlacedPublisher emits bet_placed events after a settlement commits.
type BetPlacedPublisher interface {
	PublishBetPlaced(ctx context.Context, e events.BetPlaced) error
}

// Server is the user/admin-facing HTTP API.
type Server struct {
	log     *zap.Logger
	jwt     auth.JWT
	users   *usersrepo.Postgres
	promos  *promorepo.Postgres
	support *supportrepo.Postgres
	events  *oddsrepo.Postgres
	bets    *betrepo.Postgres
	engine  *engine.Engine
	publ    BetPlacedPublisher
	updater *UpdaterClient
}

func NewServer(
	log *zap.Logger,
	jwt auth.JWT,
	users *usersrepo.Postgres,
	promos *promorepo.Postgres,
	support *supportrepo.Postgres,
	eventsRepo *oddsrepo.Postgres,
	bets *betrepo.Postgres,
	eng *engine.Engine,
	publ BetPlacedPublisher,
	updater *UpdaterClient,
) *Server {
	return &Server{
		log: log, jwt: jwt,
		users: users, promos: promos, support: support,
		events: eventsRepo, bets: bets,
		engine: eng, publ: publ, updater: updater,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.logRequests)

	r.Post("/v1/auth/register", s.register)
	r.Post("/v1/auth/login", s.login)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(s.jwt))

		r.Get("/v1/me", s.me)
		r.Get("/v1/balance", s.getBalance)
		r.Get("/v1/events", s.listEvents)

		r.Post("/v1/bets", s.placeBet)
		r.Get("/v1/bets", s.listBets)
		r.Get("/v1/bets/summary", s.betSummary)

		r.Post("/v1/support/threads", s.createThread)
		r.Get("/v1/support/threads", s.listThreads)
		r.Get("/v1/support/threads/{id}", s.getThread)
		r.Post("/v1/support/threads/{id}/messages", s.postMessage)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole("admin"))

			r.Get("/v1/admin/users", s.adminListUsers)
			r.Patch("/v1/admin/users/{id}/status", s.adminSetUserStatus)
			r.Post("/v1/admin/users/{id}/balance", s.adminAdjustBalance)

			r.Get("/v1/admin/promocodes", s.adminListPromoCodes)
			r.Post("/v1/admin/promocodes", s.adminCreatePromoCode)
			r.Put("/v1/admin/promocodes/{id}", s.adminUpdatePromoCode)
			r.Delete("/v1/admin/promocodes/{id}", s.adminDeletePromoCode)

			r.Patch("/v1/admin/events/{id}/status", s.adminSetEventStatus)
			r.Post("/v1/admin/odds/refresh", s.adminRefreshOdds)

			r.Patch("/v1/admin/support/threads/{id}/status", s.adminSetThreadStatus)
		})
	})

	return r
}

// logRequests logs method, path, status and duration of every request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rw.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}
