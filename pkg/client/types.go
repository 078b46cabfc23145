package client

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// SearchPage is the envelope every iNaturalist v1 search endpoint returns.
type SearchPage struct {
	TotalResults int               `json:"total_results"`
	Page         int               `json:"page"`
	PerPage      int               `json:"per_page"`
	Results      []json.RawMessage `json:"results"`
}

// Resource is a single lookup match.
type Resource struct {
	ID   int64
	Name string
}

// Observation is the subset of an iNaturalist observation record the
// observation tool reads. Absent fields decode to their zero values.
type Observation struct {
	ID         int64        `json:"id"`
	ObservedOn string       `json:"observed_on"`
	PlaceGuess string       `json:"place_guess"`
	PlaceIDs   []int        `json:"place_ids"`
	Taxon      *Taxon       `json:"taxon"`
	Fields     []FieldValue `json:"ofvs"`
}

// CommonName returns the taxon's preferred common name, or "" when the
// observation carries no taxon.
func (o Observation) CommonName() string {
	if o.Taxon == nil {
		return ""
	}
	return o.Taxon.PreferredCommonName
}

// Taxon is the embedded taxon of an observation.
type Taxon struct {
	ID                  int64  `json:"id"`
	Name                string `json:"name"`
	PreferredCommonName string `json:"preferred_common_name"`
}

// FieldValue is one entry of an observation's "ofvs" list (observation
// field values).
type FieldValue struct {
	FieldID int        `json:"field_id"`
	Name    string     `json:"name,omitempty"`
	Value   FlexString `json:"value"`
}

// FlexString decodes a JSON string, number, or boolean into its textual
// form. Observation field values are user-entered and the API is not
// consistent about quoting numeric ones. null decodes to "".
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	if bytes.Equal(data, []byte("true")) || bytes.Equal(data, []byte("false")) {
		*s = FlexString(data)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return err
	}
	*s = FlexString(n.String())
	return nil
}

// String returns the decoded text.
func (s FlexString) String() string {
	return string(s)
}
