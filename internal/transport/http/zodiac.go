package http

import (
	"net/http"
	"time"

	"github.com/iamasit07/wishplace/backend/internal/service/zodiac"
)

// Zodiac answers GET /api/zodiac?date=YYYY-MM-DD.
func Zodiac(w http.ResponseWriter, r *http.Request) {
	date, err := zodiac.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD", err)
		return
	}
	rng, err := zodiac.ForDate(date)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sign":  rng.Sign,
		"start": rng.Start.Format(time.DateOnly),
		"end":   rng.End.Format(time.DateOnly),
	})
}

// ZodiacSigns lists all signs.
func ZodiacSigns(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, zodiac.Signs())
}
