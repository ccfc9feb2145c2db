package kafka

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-data-dsg/internal/domain"
	"github.com/couchcryptid/storm-data-dsg/internal/dsg"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	kafkago "github.com/segmentio/kafka-go"
)

// Dataset headers.
const (
	HeaderFeatureType = "feature_type"
	HeaderBatchID     = "batch_id"
	HeaderSensorCount = "sensor_count"
	HeaderGeneratedAt = "generated_at"
)

// DatasetMessage is the JSON body of one dataset message.
type DatasetMessage struct {
	BatchID     string              `json:"batch_id"`
	FeatureType string              `json:"feature_type"`
	GeneratedAt time.Time           `json:"generated_at"`
	TimeSpan    *TimeSpanJSON       `json:"time_span,omitempty"`
	BBox        geojson.BBox        `json:"bbox,omitempty"`
	Phenomena   []domain.Phenomenon `json:"phenomena"`
	Sensors     []SensorJSON        `json:"sensors"`
}

// TimeSpanJSON is the merged phenomenon time extent of a dataset.
type TimeSpanJSON struct {
	Begin time.Time `json:"begin"`
	End   time.Time `json:"end"`
}

// SensorJSON is one member sensor. Longitude, Latitude and Height are present
// only when they stay fixed; Location is present when both horizontal
// coordinates do.
type SensorJSON struct {
	ID        string            `json:"id"`
	Procedure domain.Procedure  `json:"procedure"`
	Longitude *float64          `json:"longitude,omitempty"`
	Latitude  *float64          `json:"latitude,omitempty"`
	Height    *float64          `json:"height,omitempty"`
	Location  *geojson.Geometry `json:"location,omitempty"`
	Values    []ValueJSON       `json:"values"`
}

// ValueJSON is one grouped value of a sensor.
type ValueJSON struct {
	Begin      time.Time      `json:"begin"`
	End        *time.Time     `json:"end,omitempty"`
	Phenomenon string         `json:"phenomenon"`
	Unit       string         `json:"unit,omitempty"`
	SubSensor  *SubSensorJSON `json:"sub_sensor,omitempty"`
	Value      float64        `json:"value"`
}

// SubSensorJSON locates a value within a profile: a point at Height or a bin from Top to Bottom.
type SubSensorJSON struct {
	Kind   string   `json:"kind"`
	Height *float64 `json:"height,omitempty"`
	Top    *float64 `json:"top,omitempty"`
	Bottom *float64 `json:"bottom,omitempty"`
}

// EncodeDataset builds the wire form of a dataset.
func EncodeDataset(batchID string, generatedAt time.Time, ds *dsg.Dataset) DatasetMessage {
	m := DatasetMessage{
		BatchID:     batchID,
		FeatureType: ds.FeatureType.String(),
		GeneratedAt: generatedAt.UTC(),
		Phenomena:   ds.Phenomena,
		Sensors:     make([]SensorJSON, 0, len(ds.Sensors)),
	}
	if !ds.TimeSpan.IsEmpty() {
		m.TimeSpan = &TimeSpanJSON{Begin: ds.TimeSpan.Begin, End: ds.TimeSpan.End}
	}
	if b, ok := ds.Envelope.Bound(); ok {
		m.BBox = geojson.NewBBox(b)
	}
	if m.Phenomena == nil {
		m.Phenomena = []domain.Phenomenon{}
	}

	for _, id := range ds.SensorIDs() {
		m.Sensors = append(m.Sensors, encodeSensor(ds.Sensors[id]))
	}
	return m
}

func encodeSensor(s *dsg.SensorDataset) SensorJSON {
	out := SensorJSON{
		ID:        s.SensorID,
		Procedure: s.Procedure,
		Longitude: s.Longitude,
		Latitude:  s.Latitude,
		Height:    s.Height,
	}
	if s.Longitude != nil && s.Latitude != nil {
		out.Location = geojson.NewGeometry(orb.Point{*s.Longitude, *s.Latitude})
	}

	rows := s.Rows()
	out.Values = make([]ValueJSON, len(rows))
	for i, r := range rows {
		v := ValueJSON{
			Begin:      r.Time.Begin,
			Phenomenon: r.Phenomenon.ID,
			Unit:       r.Phenomenon.Unit,
			SubSensor:  encodeSubSensor(r.SubSensor),
			Value:      r.Value,
		}
		if !r.Time.IsInstant() {
			end := r.Time.End
			v.End = &end
		}
		out.Values[i] = v
	}
	return out
}

func encodeSubSensor(s dsg.SubSensor) *SubSensorJSON {
	switch s.Kind() {
	case dsg.SubSensorProfilePoint:
		h := s.Height()
		return &SubSensorJSON{Kind: s.Kind().String(), Height: &h}
	case dsg.SubSensorProfileBin:
		top, bottom := s.Top(), s.Bottom()
		return &SubSensorJSON{Kind: s.Kind().String(), Top: &top, Bottom: &bottom}
	default:
		return nil
	}
}

// serializeToMessage marshals a dataset into a Kafka message keyed by its
// feature type.
func serializeToMessage(batchID string, generatedAt time.Time, ds *dsg.Dataset) (kafkago.Message, error) {
	data, err := json.Marshal(EncodeDataset(batchID, generatedAt, ds))
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s dataset: %w", ds.FeatureType, err)
	}
	ft := ds.FeatureType.String()
	return kafkago.Message{
		Key:   []byte(ft),
		Value: data,
		Headers: []kafkago.Header{
			{Key: HeaderFeatureType, Value: []byte(ft)},
			{Key: HeaderBatchID, Value: []byte(batchID)},
			{Key: HeaderSensorCount, Value: []byte(strconv.Itoa(len(ds.Sensors)))},
			{Key: HeaderGeneratedAt, Value: []byte(generatedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
