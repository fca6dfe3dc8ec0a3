package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/betline/betline/internal/api/dto"
	"github.com/betline/betline/internal/auth"
	usersrepo "github.com/betline/betline/internal/users/repo"
)

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.Username == "" || req.Password == "" || req.PromoCode == "" {
		writeError(w, http.StatusBadRequest, "username, password and promo_code are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "hash password")
		return
	}

	prof, err := s.users.Register(r.Context(), req.Username, hash, req.PromoCode)
	if err != nil {
		switch {
		case errors.Is(err, usersrepo.ErrPromoNotFound),
			errors.Is(err, usersrepo.ErrPromoInactive),
			errors.Is(err, usersrepo.ErrPromoExhausted),
			errors.Is(err, usersrepo.ErrPromoExpired),
			errors.Is(err, usersrepo.ErrUsernameTaken):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s.respondWithToken(w, prof)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	prof, err := s.users.GetByUsername(r.Context(), req.Username)
	if err != nil || !auth.CheckPassword(prof.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if prof.Status == "blocked" {
		writeError(w, http.StatusForbidden, "account is blocked")
		return
	}

	s.respondWithToken(w, prof)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	prof, err := s.users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(prof))
}

func (s *Server) getBalance(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	bal, err := s.bets.Balance(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	writeJSON(w, http.StatusOK, dto.BalanceResponse{UserID: claims.UserID, Balance: bal})
}

func (s *Server) respondWithToken(w http.ResponseWriter, prof *usersrepo.Profile) {
	token, exp, err := s.jwt.Sign(auth.Claims{UserID: prof.ID, Role: prof.Role})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign token")
		return
	}
	writeJSON(w, http.StatusOK, dto.AuthResponse{
		Token:     token,
		ExpiresAt: exp.UTC().Truncate(time.Second),
		User:      toProfileResponse(prof),
	})
}

func toProfileResponse(p *usersrepo.Profile) dto.ProfileResponse {
	return dto.ProfileResponse{
		ID:        p.ID,
		Username:  p.Username,
		Role:      p.Role,
		Status:    p.Status,
		Balance:   p.Balance,
		PromoCode: p.PromoCode,
		CreatedAt: p.CreatedAt,
	}
}
