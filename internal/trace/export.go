package trace

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"strconv"
)

type ExportData struct {
	Run     RunMetadata `json:"run"`
	Samples []Sample    `json:"samples"`
}

// ExportJSON writes a run and its samples as indented JSON. NaN commands
// are written as null.
func ExportJSON(w io.Writer, meta RunMetadata, samples []Sample) error {
	data := ExportData{Run: meta, Samples: make([]Sample, len(samples))}
	copy(data.Samples, samples)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

type jsonSample struct {
	Time        float64          `json:"time"`
	Actuator    string           `json:"actuator"`
	Mode        string           `json:"mode"`
	Position    float64          `json:"position"`
	Velocity    float64          `json:"velocity"`
	Effort      float64          `json:"effort"`
	PositionCmd *float64         `json:"position_cmd"`
	VelocityCmd *float64         `json:"velocity_cmd"`
	EffortCmd   *float64         `json:"effort_cmd"`
	States      map[string]int32 `json:"states,omitempty"`
}

func (s Sample) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonSample{
		Time:        s.Time,
		Actuator:    s.Actuator,
		Mode:        s.Mode,
		Position:    s.Position,
		Velocity:    s.Velocity,
		Effort:      s.Effort,
		PositionCmd: finite(s.PositionCmd),
		VelocityCmd: finite(s.VelocityCmd),
		EffortCmd:   finite(s.EffortCmd),
		States:      s.States,
	})
}

func (s *Sample) UnmarshalJSON(data []byte) error {
	var js jsonSample
	if err := json.Unmarshal(data, &js); err != nil {
		return err
	}
	*s = Sample{
		Time:        js.Time,
		Actuator:    js.Actuator,
		Mode:        js.Mode,
		Position:    js.Position,
		Velocity:    js.Velocity,
		Effort:      js.Effort,
		PositionCmd: orNaN(js.PositionCmd),
		VelocityCmd: orNaN(js.VelocityCmd),
		EffortCmd:   orNaN(js.EffortCmd),
		States:      js.States,
	}
	return nil
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// WriteCSV writes samples with a header row.
func WriteCSV(w io.Writer, samples []Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{
			formatFloat(s.Time), s.Actuator, s.Mode,
			formatFloat(s.Position), formatFloat(s.Velocity), formatFloat(s.Effort),
			formatFloat(s.PositionCmd), formatFloat(s.VelocityCmd), formatFloat(s.EffortCmd),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
