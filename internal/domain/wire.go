package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// wireObservation is the flat JSON shape published to the source topic.
type wireObservation struct {
	ID               string         `json:"id,omitempty"`
	Procedure        Procedure      `json:"procedure"`
	ObservedProperty wireProperty   `json:"observed_property"`
	Feature          wireFeature    `json:"feature"`
	PhenomenonTime   wireTime       `json:"phenomenon_time"`
	Result           wireResult     `json:"result"`
	Parameters       *wireParameter `json:"parameters,omitempty"`
}

type wireProperty struct {
	ID         string       `json:"id"`
	Unit       string       `json:"unit,omitempty"`
	Components []Phenomenon `json:"components,omitempty"`
}

type wireFeature struct {
	ID       string        `json:"id,omitempty"`
	Type     string        `json:"type,omitempty"`
	Geometry *wireGeometry `json:"geometry,omitempty"`
}

type wireGeometry struct {
	Type        string          `json:"type"`
	SRID        int             `json:"srid,omitempty"`
	Coordinates json.RawMessage `json:"coordinates"`
}

type wireResult struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
	Unit  string          `json:"unit,omitempty"`
}

type wireParameter struct {
	Height           *float64      `json:"height,omitempty"`
	Depth            *float64      `json:"depth,omitempty"`
	SamplingGeometry *wireGeometry `json:"sampling_geometry,omitempty"`
}

// wireTime accepts either an RFC3339 string (instant) or {"begin","end"}.
type wireTime struct {
	Begin time.Time  `json:"begin"`
	End   *time.Time `json:"end,omitempty"`
}

func (w *wireTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var t time.Time
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		w.Begin = t
		w.End = nil
		return nil
	}
	type plain wireTime
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*w = wireTime(p)
	return nil
}

func (w wireTime) MarshalJSON() ([]byte, error) {
	if w.End == nil || w.End.Equal(w.Begin) {
		return json.Marshal(w.Begin)
	}
	type plain wireTime
	return json.Marshal(plain(w))
}

// ParseRawEvent deserializes a RawEvent's value into an Observation.
func ParseRawEvent(raw RawEvent) (Observation, error) {
	return DecodeObservation(raw.Value)
}

// DecodeObservation parses one JSON-encoded observation.
func DecodeObservation(data []byte) (Observation, error) {
	var w wireObservation
	if err := json.Unmarshal(data, &w); err != nil {
		return Observation{}, fmt.Errorf("parse observation: %w", err)
	}

	if w.Procedure.ID == "" {
		return Observation{}, errors.New("parse observation: missing procedure id")
	}
	if w.ObservedProperty.ID == "" {
		return Observation{}, errors.New("parse observation: missing observed property id")
	}
	if w.PhenomenonTime.Begin.IsZero() {
		return Observation{}, errors.New("parse observation: missing phenomenon time")
	}
	if w.Result.Type == "" {
		return Observation{}, errors.New("parse observation: missing result type")
	}

	featureGeom, err := decodeGeometry(w.Feature.Geometry)
	if err != nil {
		return Observation{}, fmt.Errorf("parse observation: feature geometry: %w", err)
	}

	value, err := decodeResult(w.Result)
	if err != nil {
		return Observation{}, fmt.Errorf("parse observation: result: %w", err)
	}

	params, err := decodeParameters(w.Parameters)
	if err != nil {
		return Observation{}, fmt.Errorf("parse observation: parameters: %w", err)
	}

	t := Instant(w.PhenomenonTime.Begin)
	if w.PhenomenonTime.End != nil {
		t = Period(w.PhenomenonTime.Begin, *w.PhenomenonTime.End)
	}

	return Observation{
		ID:        w.ID,
		Procedure: w.Procedure,
		Property: ObservableProperty{
			Phenomenon: Phenomenon{ID: w.ObservedProperty.ID, Unit: w.ObservedProperty.Unit},
			Components: w.ObservedProperty.Components,
		},
		Feature: Feature{
			ID:       w.Feature.ID,
			Kind:     FeatureKind(w.Feature.Type),
			Geometry: featureGeom,
		},
		Time:       t,
		Value:      value,
		Parameters: params,
	}, nil
}

// EncodeObservation is the inverse of DecodeObservation.
func EncodeObservation(o Observation) ([]byte, error) {
	w := wireObservation{
		ID:        o.ID,
		Procedure: o.Procedure,
		ObservedProperty: wireProperty{
			ID:         o.Property.ID,
			Unit:       o.Property.Unit,
			Components: o.Property.Components,
		},
		Feature: wireFeature{
			ID:       o.Feature.ID,
			Type:     string(o.Feature.Kind),
			Geometry: encodeGeometry(o.Feature.Geometry),
		},
		PhenomenonTime: wireTime{Begin: o.Time.Begin},
		Result:         wireResult{Type: string(o.Value.Kind), Unit: o.Value.Unit},
	}
	if !o.Time.IsInstant() {
		end := o.Time.End
		w.PhenomenonTime.End = &end
	}
	if o.Value.Kind.IsScalarNumeric() {
		v, err := json.Marshal(o.Value.Number)
		if err != nil {
			return nil, fmt.Errorf("encode observation: %w", err)
		}
		w.Result.Value = v
	}
	if o.Parameters.HeightDepth != nil || o.Parameters.SamplingGeometry != nil {
		w.Parameters = &wireParameter{
			Height:           o.Parameters.HeightDepth,
			SamplingGeometry: encodeGeometry(o.Parameters.SamplingGeometry),
		}
	}

	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encode observation: %w", err)
	}
	return data, nil
}

func decodeResult(r wireResult) (Value, error) {
	v := Value{Kind: ValueKind(r.Type), Unit: r.Unit}
	if !v.Kind.IsScalarNumeric() {
		return v, nil
	}
	if len(r.Value) == 0 {
		return Value{}, fmt.Errorf("%s result without value", r.Type)
	}
	if err := json.Unmarshal(r.Value, &v.Number); err != nil {
		return Value{}, fmt.Errorf("%s value: %w", r.Type, err)
	}
	return v, nil
}

// decodeParameters maps the optional parameter block. Height wins over depth.
func decodeParameters(p *wireParameter) (Parameters, error) {
	if p == nil {
		return Parameters{}, nil
	}
	var out Parameters
	switch {
	case p.Height != nil:
		out.HeightDepth = p.Height
	case p.Depth != nil:
		out.HeightDepth = p.Depth
	}
	g, err := decodeGeometry(p.SamplingGeometry)
	if err != nil {
		return Parameters{}, fmt.Errorf("sampling geometry: %w", err)
	}
	out.SamplingGeometry = g
	return out, nil
}

func decodeGeometry(w *wireGeometry) (*Geometry, error) {
	if w == nil {
		return nil, nil
	}
	g := &Geometry{Type: GeometryType(w.Type), SRID: w.SRID}
	switch g.Type {
	case GeometryPoint:
		c, err := decodePosition(w.Coordinates)
		if err != nil {
			return nil, err
		}
		g.Coordinates = []Coordinate{c}
	case GeometryLineString, GeometryMultiPoint:
		coords, err := decodePositions(w.Coordinates)
		if err != nil {
			return nil, err
		}
		g.Coordinates = coords
	case GeometryPolygon:
		var rings []json.RawMessage
		if err := json.Unmarshal(w.Coordinates, &rings); err != nil {
			return nil, fmt.Errorf("polygon rings: %w", err)
		}
		if len(rings) == 0 {
			return nil, errors.New("polygon without rings")
		}
		coords, err := decodePositions(rings[0])
		if err != nil {
			return nil, err
		}
		g.Coordinates = coords
	default:
		return nil, fmt.Errorf("unknown geometry type %q", w.Type)
	}
	return g, nil
}

func decodePositions(data json.RawMessage) ([]Coordinate, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	coords := make([]Coordinate, 0, len(raw))
	for _, r := range raw {
		c, err := decodePosition(r)
		if err != nil {
			return nil, err
		}
		coords = append(coords, c)
	}
	return coords, nil
}

func decodePosition(data json.RawMessage) (Coordinate, error) {
	var pos []float64
	if err := json.Unmarshal(data, &pos); err != nil {
		return Coordinate{}, fmt.Errorf("position: %w", err)
	}
	switch len(pos) {
	case 2:
		return XY(pos[0], pos[1]), nil
	case 3:
		return XYZ(pos[0], pos[1], pos[2]), nil
	default:
		return Coordinate{}, fmt.Errorf("position with %d ordinates", len(pos))
	}
}

func encodeGeometry(g *Geometry) *wireGeometry {
	if g == nil {
		return nil
	}
	positions := make([][]float64, len(g.Coordinates))
	for i, c := range g.Coordinates {
		if c.HasZ() {
			positions[i] = []float64{c.X, c.Y, c.Z}
		} else {
			positions[i] = []float64{c.X, c.Y}
		}
	}

	var coords any
	switch g.Type {
	case GeometryPoint:
		if len(positions) > 0 {
			coords = positions[0]
		}
	case GeometryPolygon:
		coords = [][][]float64{positions}
	default:
		coords = positions
	}
	// Marshalling plain float slices cannot fail for finite input.
	data, _ := json.Marshal(coords) //nolint:errchkjson // finite ordinates only
	return &wireGeometry{Type: string(g.Type), SRID: g.SRID, Coordinates: data}
}
