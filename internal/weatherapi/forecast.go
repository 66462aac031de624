package weatherapi

import (
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"stratus/internal/weather"
	"stratus/pkg/logging"
)

// ForecastDays is how many days a forecast covers, starting tomorrow.
const ForecastDays = 5

const (
	minTemperatureC = -20
	maxTemperatureC = 55 // exclusive
)

// forecaster generates random forecasts. rnd is not safe for concurrent use.
type forecaster struct {
	now func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

func (f *forecaster) forecast() []weather.Forecast {
	f.mu.Lock()
	defer f.mu.Unlock()

	today := f.now()
	out := make([]weather.Forecast, 0, ForecastDays)
	for day := 1; day <= ForecastDays; day++ {
		c := minTemperatureC + f.rnd.IntN(maxTemperatureC-minTemperatureC)
		out = append(out, weather.Forecast{
			Date:         today.AddDate(0, 0, day).Format(weather.DateLayout),
			TemperatureC: c,
			TemperatureF: weather.TemperatureF(c),
			Summary:      weather.Summaries[f.rnd.IntN(len(weather.Summaries))],
		})
	}
	return out
}

func (f *forecaster) serveHTTP(w http.ResponseWriter, r *http.Request) {
	forecasts := f.forecast()

	if p := PrincipalFrom(r.Context()); p != nil {
		logging.Debug(subsystem, "Forecast for %s (app=%t, request %s)", p.Subject, p.IsApp(), RequestID(r.Context()))
	}

	writeJSON(w, http.StatusOK, forecasts)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn(subsystem, "Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, map[string]string{
		"error":             code,
		"error_description": description,
	})
}
