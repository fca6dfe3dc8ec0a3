package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/betline/betline/internal/api/dto"
	"github.com/betline/betline/internal/odds/normalize"
	promorepo "github.com/betline/betline/internal/promo/repo"
	usersrepo "github.com/betline/betline/internal/users/repo"
)

func (s *Server) adminListUsers(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.users.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]dto.ProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, toProfileResponse(&p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) adminSetUserStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.UpdateUserStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.Status != "active" && req.Status != "blocked" {
		writeError(w, http.StatusBadRequest, "status must be active or blocked")
		return
	}

	if err := s.users.SetStatus(r.Context(), id, req.Status); err != nil {
		if errors.Is(err, usersrepo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.log.Info("user status changed",
		zap.String("user_id", id), zap.String("status", req.Status))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) adminAdjustBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.AdjustBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.Amount.IsZero() {
		writeError(w, http.StatusBadRequest, "amount must be non-zero")
		return
	}
	reason := req.Reason
	if reason == "" {
		reason = "admin_adjustment"
	}

	newBalance, err := s.users.AdjustBalance(r.Context(), id, req.Amount, reason)
	if err != nil {
		switch {
		case errors.Is(err, usersrepo.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, usersrepo.ErrBalanceBelowZero):
			writeError(w, http.StatusConflict, "adjustment would make balance negative")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s.log.Info("balance adjusted",
		zap.String("user_id", id),
		zap.String("amount", req.Amount.String()),
		zap.String("reason", reason))
	writeJSON(w, http.StatusOK, dto.BalanceResponse{UserID: id, Balance: newBalance})
}

func (s *Server) adminListPromoCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := s.promos.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]dto.PromoCodeResponse, 0, len(codes))
	for _, pc := range codes {
		out = append(out, toPromoResponse(pc))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) adminCreatePromoCode(w http.ResponseWriter, r *http.Request) {
	pc, ok := s.promoFromRequest(w, r)
	if !ok {
		return
	}

	if err := s.promos.Create(r.Context(), pc); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toPromoResponse(*pc))
}

func (s *Server) adminUpdatePromoCode(w http.ResponseWriter, r *http.Request) {
	pc, ok := s.promoFromRequest(w, r)
	if !ok {
		return
	}
	pc.ID = chi.URLParam(r, "id")

	if err := s.promos.Update(r.Context(), pc); err != nil {
		if errors.Is(err, promorepo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "promo code not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toPromoResponse(*pc))
}

func (s *Server) adminDeletePromoCode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.promos.Delete(r.Context(), id); err != nil {
		if errors.Is(err, promorepo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "promo code not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// promoFromRequest decodes and validates the shared create/update payload.
func (s *Server) promoFromRequest(w http.ResponseWriter, r *http.Request) (*promorepo.PromoCode, bool) {
	var req dto.PromoCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return nil, false
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return nil, false
	}
	if req.UserRole != "user" && req.UserRole != "admin" {
		writeError(w, http.StatusBadRequest, "user_role must be user or admin")
		return nil, false
	}
	if req.BonusBalance.IsNegative() {
		writeError(w, http.StatusBadRequest, "bonus_balance must not be negative")
		return nil, false
	}

	pc := &promorepo.PromoCode{
		Code:         req.Code,
		Description:  req.Description,
		UserRole:     req.UserRole,
		BonusBalance: req.BonusBalance,
		MaxUses:      req.MaxUses,
		IsActive:     req.IsActive,
	}
	if req.ExpiresAt != nil {
		t, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "expires_at must be RFC 3339")
			return nil, false
		}
		pc.ExpiresAt = &t
	}
	return pc, true
}

func (s *Server) adminSetEventStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.UpdateEventStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	switch req.Status {
	case normalize.StatusScheduled, normalize.StatusLive, normalize.StatusCompleted:
	default:
		writeError(w, http.StatusBadRequest, "status must be scheduled, live or completed")
		return
	}

	if err := s.events.UpdateStatus(r.Context(), id, req.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.log.Info("event status changed",
		zap.String("event_id", id), zap.String("status", req.Status))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) adminRefreshOdds(w http.ResponseWriter, r *http.Request) {
	sum, err := s.updater.Trigger(r.Context())
	if err != nil {
		s.log.Error("manual odds refresh failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func toPromoResponse(pc promorepo.PromoCode) dto.PromoCodeResponse {
	return dto.PromoCodeResponse{
		ID:           pc.ID,
		Code:         pc.Code,
		Description:  pc.Description,
		UserRole:     pc.UserRole,
		BonusBalance: pc.BonusBalance,
		MaxUses:      pc.MaxUses,
		UsedCount:    pc.UsedCount,
		ExpiresAt:    pc.ExpiresAt,
		IsActive:     pc.IsActive,
		CreatedAt:    pc.CreatedAt,
	}
}
