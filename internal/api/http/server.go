package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/radieske/cavs-spread-bets/internal/bets"
	"github.com/radieske/cavs-spread-bets/internal/games"
	"github.com/radieske/cavs-spread-bets/internal/scheduler"
	"github.com/radieske/cavs-spread-bets/internal/settlement"
	"github.com/radieske/cavs-spread-bets/internal/shared/apperr"
	"github.com/radieske/cavs-spread-bets/internal/users"
)

const (
	HeaderUserID     = "X-User-ID"
	HeaderAdminToken = "X-Admin-Token"
)

type GameReader interface {
	GetNextGame(ctx context.Context) (*games.Game, error)
}

type Settler interface {
	Settle(ctx context.Context, gameID string, home, away int) (*settlement.Summary, error)
}

// Triggers são os jobs de ingestão disparados manualmente pelo admin
type Triggers interface {
	RefreshOdds(ctx context.Context) (*scheduler.RefreshResult, error)
	AutoSettle(ctx context.Context) (*scheduler.AutoSettleResult, error)
}

type BetService interface {
	PlaceBet(ctx context.Context, userID, gameID, selection string) (*bets.Bet, error)
	ListByUser(ctx context.Context, userID string) ([]bets.BetWithGame, error)
}

type UserReader interface {
	FindByID(ctx context.Context, id string) (*users.User, error)
}

// API expõe o core via REST. Identidade vem do gateway em X-User-ID.
type API struct {
	Games       GameReader
	Settler     Settler
	Triggers    Triggers
	Bets        BetService
	Users       UserReader
	WS          http.HandlerFunc // opcional
	AdminToken  string
	CORSOrigins []string // vazio = qualquer origem
	Log         *zap.Logger
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	if a.Log == nil {
		a.Log = zap.NewNop()
	}

	origins := a.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", HeaderUserID, HeaderAdminToken},
		MaxAge:         300,
	}))

	r.Get("/v1/games/next", a.getNextGame)
	r.Get("/v1/users/me", a.withUser(a.getMe))
	r.Post("/v1/bets", a.withUser(a.placeBet))
	r.Get("/v1/bets", a.withUser(a.listBets))

	r.Group(func(r chi.Router) {
		r.Use(a.adminOnly)
		r.Post("/v1/games/next", a.refreshNextGame)
		r.Post("/v1/games/{gameId}/settle", a.settleGame)
		r.Post("/v1/admin/auto-settle", a.autoSettle)
	})

	if a.WS != nil {
		r.Get("/ws", a.WS)
	}
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError traduz o erro do domínio para status; 5xx não expõe detalhes
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		a.Log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, status, ErrorResponse{Error: http.StatusText(status)})
		return
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func (a *API) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(HeaderAdminToken)
		if a.AdminToken == "" || subtle.ConstantTimeCompare([]byte(got), []byte(a.AdminToken)) != 1 {
			writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "admin access required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type userHandler func(w http.ResponseWriter, r *http.Request, userID string)

func (a *API) withUser(h userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(HeaderUserID)
		if userID == "" {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing " + HeaderUserID})
			return
		}
		h(w, r, userID)
	}
}

func (a *API) getNextGame(w http.ResponseWriter, r *http.Request) {
	g, err := a.Games.GetNextGame(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if g == nil {
		writeJSON(w, http.StatusOK, MessageResponse{Message: "No upcoming game found"})
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// refreshNextGame busca no provedor e grava; 404 se nem provedor nem fallback têm jogo
func (a *API) refreshNextGame(w http.ResponseWriter, r *http.Request) {
	res, err := a.Triggers.RefreshOdds(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if res.Game == nil {
		a.writeError(w, r, fmt.Errorf("next game from odds provider: %w", apperr.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, NextGameResponse{Game: res.Game, StaleWarning: res.StaleWarning})
}

func (a *API) settleGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameId")

	var req SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad json"})
		return
	}
	if req.FinalHomeScore == nil || req.FinalAwayScore == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "finalHomeScore and finalAwayScore are required"})
		return
	}

	sum, err := a.Settler.Settle(r.Context(), gameID, *req.FinalHomeScore, *req.FinalAwayScore)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (a *API) autoSettle(w http.ResponseWriter, r *http.Request) {
	res, err := a.Triggers.AutoSettle(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) placeBet(w http.ResponseWriter, r *http.Request, userID string) {
	var req PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad json"})
		return
	}

	b, err := a.Bets.PlaceBet(r.Context(), userID, req.GameID, req.Selection)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (a *API) listBets(w http.ResponseWriter, r *http.Request, userID string) {
	out, err := a.Bets.ListByUser(r.Context(), userID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) getMe(w http.ResponseWriter, r *http.Request, userID string) {
	u, err := a.Users.FindByID(r.Context(), userID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PointsResponse{UserID: u.ID, Email: u.Email, Points: u.Points})
}
