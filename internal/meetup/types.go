package meetup

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Group is a Meetup group. Raw keeps every field the API returned and is what
// gets persisted.
type Group struct {
	ID      string
	Name    string
	URLName string
	Lat     float64
	Lon     float64
	Members int
	Created time.Time
	Raw     Record
}

// NewGroup builds a Group from a raw API result. The id and name fields are required.
func NewGroup(raw Record) (Group, error) {
	g := Group{Raw: raw}

	g.ID = stringValue(raw["id"])
	if g.ID == "" {
		return Group{}, errors.New("group record has no id")
	}
	g.Name, _ = raw["name"].(string)
	if strings.TrimSpace(g.Name) == "" {
		return Group{}, errors.New("group record has no name")
	}

	g.URLName, _ = raw["urlname"].(string)
	g.Lat, _ = floatValue(raw["lat"])
	g.Lon, _ = floatValue(raw["lon"])
	if n, ok := floatValue(raw["members"]); ok {
		g.Members = int(n)
	}
	g.Created, _ = millisValue(raw["created"])

	return g, nil
}

// Member is a raw member record. Fields are passed through untouched.
type Member map[string]any

// Joined returns when the member joined the group, if the API reported it.
func (m Member) Joined() (time.Time, bool) {
	return millisValue(m["joined"])
}

// stringValue renders an id-like value as a string.
func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

func floatValue(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// millisValue interprets v as an epoch-millisecond timestamp. Zero and missing
// values are reported as absent.
func millisValue(v any) (time.Time, bool) {
	var ms int64
	switch t := v.(type) {
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			f, ferr := t.Float64()
			if ferr != nil {
				return time.Time{}, false
			}
			n = int64(f)
		}
		ms = n
	default:
		f, ok := floatValue(v)
		if !ok {
			return time.Time{}, false
		}
		ms = int64(f)
	}
	if ms == 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}
