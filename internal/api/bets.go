package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/betline/betline/internal/api/dto"
	"github.com/betline/betline/internal/auth"
	"github.com/betline/betline/internal/betting/engine"
	betrepo "github.com/betline/betline/internal/betting/repo"
	"github.com/betline/betline/pkg/contracts/events"
)

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	prof, err := s.users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	if prof.Status == "blocked" {
		writeError(w, http.StatusForbidden, "account is blocked")
		return
	}

	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	sub := engine.Submission{
		BetType: req.BetType,
		Stake:   req.Stake,
	}
	for _, sel := range req.Selections {
		sub.Selections = append(sub.Selections, engine.Selection{
			EventID: sel.EventID,
			Market:  sel.Market,
			Outcome: sel.Outcome,
			Odds:    sel.Odds,
			Stake:   sel.Stake,
		})
	}

	receipt, err := s.engine.Place(r.Context(), claims.UserID, sub)
	if err != nil {
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			status := http.StatusBadRequest
			if verr.Reason == "odds_changed" {
				status = http.StatusConflict
			}
			writeJSON(w, status, dto.ErrorResponse{Error: verr.Message, Reason: verr.Reason})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.publishBetPlaced(r, claims.UserID, sub, receipt)

	writeJSON(w, http.StatusOK, dto.PlaceBetResponse{
		BetIDs:          receipt.BetIDs,
		ExpressID:       receipt.ExpressID,
		TotalStake:      receipt.TotalStake,
		PotentialPayout: receipt.PotentialPayout,
		NewBalance:      receipt.NewBalance,
	})
}

// publishBetPlaced emits the bet_placed event. Publish failures are logged
// and never fail an already committed placement.
func (s *Server) publishBetPlaced(r *http.Request, userID string, sub engine.Submission, receipt *engine.Receipt) {
	if s.publ == nil {
		return
	}
	e := events.BetPlaced{
		UserID:          userID,
		BetType:         sub.BetType,
		ExpressID:       receipt.ExpressID,
		Stake:           receipt.TotalStake.String(),
		PotentialPayout: receipt.PotentialPayout.String(),
	}
	for _, sel := range sub.Selections {
		if sub.BetType == engine.BetTypeSingle && !sel.Stake.IsPositive() {
			continue
		}
		var betID string
		if len(e.Legs) < len(receipt.BetIDs) {
			betID = receipt.BetIDs[len(e.Legs)]
		}
		e.Legs = append(e.Legs, events.BetPlacedLeg{
			BetID:   betID,
			EventID: sel.EventID,
			Market:  sel.Market,
			Outcome: sel.Outcome,
			Odds:    sel.Odds.String(),
		})
	}
	if err := s.publ.PublishBetPlaced(r.Context(), e); err != nil {
		s.log.Warn("publish bet_placed failed", zap.Error(err))
	}
}

func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	status := r.URL.Query().Get("status")

	bets, err := s.bets.ListByUser(r.Context(), claims.UserID, status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]dto.BetResponse, 0, len(bets))
	for _, b := range bets {
		out = append(out, toBetResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) betSummary(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	sum, err := s.bets.SummaryByUser(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dto.BetSummaryResponse{
		Total:     sum.Total,
		Pending:   sum.Pending,
		Won:       sum.Won,
		Lost:      sum.Lost,
		Void:      sum.Void,
		TotalWon:  sum.TotalWon,
		TotalLost: sum.TotalLost,
	})
}

func toBetResponse(b betrepo.Bet) dto.BetResponse {
	out := dto.BetResponse{
		ID:        b.ID,
		EventID:   b.EventID,
		Market:    b.Market,
		Outcome:   b.Outcome,
		Odds:      b.Odds,
		BetType:   b.BetType,
		ExpressID: b.ExpressID,
		Status:    b.Status,
		CreatedAt: b.CreatedAt,
	}
	if b.Stake.Valid {
		v := b.Stake.Decimal
		out.Stake = &v
	}
	if b.PotentialPayout.Valid {
		v := b.PotentialPayout.Decimal
		out.PotentialPayout = &v
	}
	return out
}
