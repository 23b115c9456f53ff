package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/questlog/backend/internal/dice"
	"github.com/questlog/backend/internal/formula"
)

type rollRequest struct {
	Dice []dice.Spec `json:"dice"`
}

type rollResponse struct {
	Groups  []dice.Group `json:"groups"`
	Summary dice.Summary `json:"summary"`
	Formula string       `json:"formula"`
}

// RollDice resolves a dice specification server-side and hands back the
// groups, the combined summary and the formula string ready to store on an
// event. Clients that roll locally skip this and build the same payload
// themselves.
func RollDice(log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rollRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad json"})
			return
		}
		if len(req.Dice) == 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no dice requested"})
			return
		}

		groups, err := dice.NewRoller().Resolve(req.Dice)
		if err != nil {
			if errors.Is(err, dice.ErrUnsupportedDie) || errors.Is(err, dice.ErrNegativeQuantity) || errors.Is(err, dice.ErrDuplicateDie) {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
				return
			}
			log.Error("roll failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "roll failed"})
			return
		}

		writeJSON(w, http.StatusOK, rollResponse{
			Groups:  groups,
			Summary: dice.Summarize(groups),
			Formula: formula.Encode(groups),
		})
	}
}
