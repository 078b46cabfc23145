// Package record turns iNaturalist observations into the flat rows the
// observation tool prints: county resolution, observation field extraction
// and CSV rendering.
package record

import (
	"strconv"
	"strings"

	"github.com/Sternrassler/inat-client/pkg/client"
	"github.com/rs/zerolog"
)

// Herps of Texas survey defaults.
const (
	ProjectHerpsOfTexas = 411
	TaxonAnura          = 20979
)

// Record is one output row.
type Record struct {
	ID            int64
	ObservedOn    string
	Place         string
	CommonName    string
	CallIntensity string
	AirTempC      string
}

// Builder converts observations to records against a county table.
type Builder struct {
	counties *CountyTable
	logger   zerolog.Logger
}

// NewBuilder creates a Builder. A nil table resolves every place to the
// observation's place guess.
func NewBuilder(counties *CountyTable, logger zerolog.Logger) *Builder {
	return &Builder{counties: counties, logger: logger}
}

// Build converts a single observation.
func (b *Builder) Build(obs client.Observation) Record {
	fields := ExtractFields(obs.Fields, b.logger.With().Int64("observation_id", obs.ID).Logger())
	return Record{
		ID:            obs.ID,
		ObservedOn:    obs.ObservedOn,
		Place:         b.counties.Resolve(obs.PlaceIDs, obs.PlaceGuess),
		CommonName:    obs.CommonName(),
		CallIntensity: fields.CallIntensity,
		AirTempC:      fields.AirTempC,
	}
}

// CSV renders the record as
//
//	id,"observed_on","place","common_name","call_intensity","air_temp_c"
//
// String fields are always quoted; embedded quotes are doubled.
func (r Record) CSV() string {
	var sb strings.Builder
	sb.WriteString(strconv.FormatInt(r.ID, 10))
	for _, f := range []string{r.ObservedOn, r.Place, r.CommonName, r.CallIntensity, r.AirTempC} {
		sb.WriteString(`,"`)
		sb.WriteString(strings.ReplaceAll(f, `"`, `""`))
		sb.WriteByte('"')
	}
	return sb.String()
}
