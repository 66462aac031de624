// Package weather holds the forecast model shared by the weather API and the
// client the CLI uses to call it with a bearer token.
package weather

// Summaries are the forecast descriptions, coldest first.
var Summaries = []string{
	"Freezing", "Bracing", "Chilly", "Cool", "Mild", "Warm", "Balmy", "Hot", "Sweltering", "Scorching",
}

// DateLayout is the wire format of Forecast.Date.
const DateLayout = "2006-01-02"

// Forecast is one day of the forecast.
type Forecast struct {
	Date         string `json:"date" yaml:"date"`
	TemperatureC int    `json:"temperatureC" yaml:"temperatureC"`
	TemperatureF int    `json:"temperatureF" yaml:"temperatureF"`
	Summary      string `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// TemperatureF converts Celsius the way the forecast API reports it.
func TemperatureF(c int) int {
	return 32 + int(float64(c)/0.5556)
}
