package api

import (
	"net/http"

	"github.com/betline/betline/internal/api/dto"
	"github.com/betline/betline/internal/odds/normalize"
)

// listEvents returns events by lifecycle status, scheduled by default.
func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = normalize.StatusScheduled
	}

	evs, err := s.events.ListByStatus(r.Context(), status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]dto.EventResponse, 0, len(evs))
	for _, ev := range evs {
		out = append(out, dto.EventResponse{
			ID:           ev.ID,
			Sport:        ev.Sport,
			League:       ev.League,
			HomeTeam:     ev.HomeTeam,
			AwayTeam:     ev.AwayTeam,
			CommenceTime: ev.CommenceTime,
			Status:       ev.Status,

			HomeOdds: ev.HomeOdds,
			AwayOdds: ev.AwayOdds,
			DrawOdds: ev.DrawOdds,

			SpreadsHomeOdds:  ev.SpreadsHomeOdds,
			SpreadsAwayOdds:  ev.SpreadsAwayOdds,
			SpreadsHomePoint: ev.SpreadsHomePoint,
			SpreadsAwayPoint: ev.SpreadsAwayPoint,

			TotalsOverOdds:  ev.TotalsOverOdds,
			TotalsUnderOdds: ev.TotalsUnderOdds,
			TotalsPoint:     ev.TotalsPoint,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
