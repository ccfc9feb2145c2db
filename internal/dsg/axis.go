package dsg

import "strings"

// AxisClassifier answers whether a phenomenon identifier denotes a longitude,
// latitude or vertical axis. Matching is case-insensitive. An empty set makes
// the matching predicate always false.
type AxisClassifier struct {
	longitude map[string]struct{}
	latitude  map[string]struct{}
	vertical  map[string]struct{}
}

// NewAxisClassifier builds an immutable classifier from the configured
// identifier sets.
func NewAxisClassifier(longitude, latitude, vertical []string) *AxisClassifier {
	return &AxisClassifier{
		longitude: lowerSet(longitude),
		latitude:  lowerSet(latitude),
		vertical:  lowerSet(vertical),
	}
}

// IsLongitude reports whether id names a longitude axis.
func (a *AxisClassifier) IsLongitude(id string) bool {
	if a == nil {
		return false
	}
	return contains(a.longitude, id)
}

// IsLatitude reports whether id names a latitude axis.
func (a *AxisClassifier) IsLatitude(id string) bool {
	if a == nil {
		return false
	}
	return contains(a.latitude, id)
}

// IsVertical reports whether id names a height or depth axis.
func (a *AxisClassifier) IsVertical(id string) bool {
	if a == nil {
		return false
	}
	return contains(a.vertical, id)
}

func contains(set map[string]struct{}, id string) bool {
	if len(set) == 0 {
		return false
	}
	_, ok := set[strings.ToLower(strings.TrimSpace(id))]
	return ok
}

func lowerSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	return set
}
