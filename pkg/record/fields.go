package record

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Sternrassler/inat-client/pkg/client"
	"github.com/rs/zerolog"
)

// Observation field IDs used by the Herps of Texas project.
const (
	FieldCallIntensity = 980
	FieldAirTempC      = 1983
	FieldAirTempF      = 5081
)

// callIntensityCutset strips the "C"/"CI" prefixes observers type in front
// of the call intensity digit, e.g. "C3" or "ci 2".
const callIntensityCutset = "\t\n CcIi"

// Fields holds the custom observation field values printed per record.
type Fields struct {
	CallIntensity string
	AirTempC      string
}

// FahrenheitToCelsius converts a temperature in degrees Fahrenheit.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32.0) * 5.0 / 9.0
}

// FormatCelsius renders a temperature with one decimal place.
func FormatCelsius(c float64) string {
	return fmt.Sprintf("%.1f", c)
}

// ExtractFields pulls call intensity and air temperature out of an
// observation's field values. Fields are applied in order and empty values
// are skipped, so when both a Celsius and a Fahrenheit reading exist the
// one listed last wins. A Fahrenheit value that is not a number is ignored.
func ExtractFields(values []client.FieldValue, logger zerolog.Logger) Fields {
	var out Fields
	for _, fv := range values {
		value := fv.Value.String()
		if value == "" {
			continue
		}

		switch fv.FieldID {
		case FieldCallIntensity:
			out.CallIntensity = strings.Trim(value, callIntensityCutset)
			logger.Debug().Str("ci", out.CallIntensity).Msg("Call intensity")
		case FieldAirTempC:
			out.AirTempC = value
			logger.Debug().Str("air_temp_c", out.AirTempC).Msg("Air temperature")
		case FieldAirTempF:
			f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil {
				logger.Warn().
					Err(err).
					Str("value", value).
					Int("field_id", fv.FieldID).
					Msg("Ignoring non-numeric Fahrenheit value")
				continue
			}
			out.AirTempC = FormatCelsius(FahrenheitToCelsius(f))
			logger.Debug().Str("air_temp_c", out.AirTempC).Msg("Air temperature (converted)")
		}
	}
	return out
}
