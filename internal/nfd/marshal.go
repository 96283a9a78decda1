package nfd

import (
	"encoding/json"
	"math"
)

// Matrix is a square float matrix that marshals NaN and infinite
// entries as JSON null, since encoding/json rejects them outright.
type Matrix [][]float64

func (m Matrix) MarshalJSON() ([]byte, error) {
	rows := make([][]*float64, len(m))
	for i, row := range m {
		rows[i] = make([]*float64, len(row))
		for j, v := range row {
			rows[i][j] = nullable(v)
		}
	}
	return json.Marshal(rows)
}

func (m *Matrix) UnmarshalJSON(data []byte) error {
	var rows [][]*float64
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	out := make(Matrix, len(rows))
	for i, row := range rows {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			if v == nil {
				out[i][j] = math.NaN()
			} else {
				out[i][j] = *v
			}
		}
	}
	*m = out
	return nil
}

// MarshalJSON renders undefined quantities as null.
func (s SpeciesResult) MarshalJSON() ([]byte, error) {
	type wire struct {
		Index            int             `json:"index"`
		Name             string          `json:"name"`
		Status           Status          `json:"status"`
		Reason           UndefinedReason `json:"reason,omitempty"`
		ND               *float64        `json:"nd"`
		FD               *float64        `json:"fd"`
		FDPrime          *float64        `json:"fd_prime"`
		NicheOverlap     *float64        `json:"niche_overlap"`
		Mu               *float64        `json:"mu"`
		Invasion         *float64        `json:"invasion"`
		Eta              *float64        `json:"eta"`
		Monoculture      *float64        `json:"monoculture"`
		ResidentStable   bool            `json:"resident_stable"`
		SpectralAbscissa *float64        `json:"spectral_abscissa"`
	}
	return json.Marshal(wire{
		Index:            s.Index,
		Name:             s.Name,
		Status:           s.Status,
		Reason:           s.Reason,
		ND:               nullable(s.ND),
		FD:               nullable(s.FD),
		FDPrime:          nullable(s.FDPrime),
		NicheOverlap:     nullable(s.NicheOverlap),
		Mu:               nullable(s.Mu),
		Invasion:         nullable(s.Invasion),
		Eta:              nullable(s.Eta),
		Monoculture:      nullable(s.Monoculture),
		ResidentStable:   s.ResidentStable,
		SpectralAbscissa: nullable(s.SpectralAbscissa),
	})
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
