package scenario

import (
	"encoding/json"
	"fmt"
	"strings"
)

// HintKind is the closed set of hint content variants.
type HintKind string

const (
	HintKindText     HintKind = "text"
	HintKindPhoto    HintKind = "photo"
	HintKindDocument HintKind = "document"
	HintKindGPS      HintKind = "gps"
)

// Hint is a single piece of hint content. Implementations live only in this
// package.
type Hint interface {
	Kind() HintKind
	isHint()
}

type TextHint struct {
	Text string `json:"text"`
}

func (TextHint) Kind() HintKind { return HintKindText }
func (TextHint) isHint()        {}

// PhotoHint references a stored file, the file storage itself is external.
type PhotoHint struct {
	FileID  string `json:"fileId"`
	Caption string `json:"caption,omitempty"`
}

func (PhotoHint) Kind() HintKind { return HintKindPhoto }
func (PhotoHint) isHint()        {}

type DocumentHint struct {
	FileID  string `json:"fileId"`
	Caption string `json:"caption,omitempty"`
}

func (DocumentHint) Kind() HintKind { return HintKindDocument }
func (DocumentHint) isHint()        {}

type GPSHint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (GPSHint) Kind() HintKind { return HintKindGPS }
func (GPSHint) isHint()        {}

// Describe returns a short plain text description of the hint, used by logs
// and audit events.
func Describe(h Hint) string {
	switch v := h.(type) {
	case TextHint:
		return v.Text
	case PhotoHint:
		return strings.TrimSpace("photo " + v.Caption)
	case DocumentHint:
		return strings.TrimSpace("document " + v.Caption)
	case GPSHint:
		return "gps"
	default:
		return "unknown"
	}
}

type rawHint struct {
	Kind HintKind        `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func encodeHints(hints []Hint) ([]rawHint, error) {
	raw := make([]rawHint, 0, len(hints))
	for _, h := range hints {
		data, err := json.Marshal(h)
		if err != nil {
			return nil, fmt.Errorf("marshal hint: %w", err)
		}
		raw = append(raw, rawHint{Kind: h.Kind(), Data: data})
	}

	return raw, nil
}

func decodeHints(raw []rawHint) ([]Hint, error) {
	hints := make([]Hint, 0, len(raw))
	for _, rh := range raw {
		h, err := decodeHint(rh)
		if err != nil {
			return nil, err
		}
		hints = append(hints, h)
	}

	return hints, nil
}

func decodeHint(rh rawHint) (Hint, error) {
	switch rh.Kind {
	case HintKindText:
		var h TextHint
		if err := json.Unmarshal(rh.Data, &h); err != nil {
			return nil, fmt.Errorf("unmarshal text hint: %w", err)
		}
		return h, nil
	case HintKindPhoto:
		var h PhotoHint
		if err := json.Unmarshal(rh.Data, &h); err != nil {
			return nil, fmt.Errorf("unmarshal photo hint: %w", err)
		}
		return h, nil
	case HintKindDocument:
		var h DocumentHint
		if err := json.Unmarshal(rh.Data, &h); err != nil {
			return nil, fmt.Errorf("unmarshal document hint: %w", err)
		}
		return h, nil
	case HintKindGPS:
		var h GPSHint
		if err := json.Unmarshal(rh.Data, &h); err != nil {
			return nil, fmt.Errorf("unmarshal gps hint: %w", err)
		}
		return h, nil
	default:
		return nil, fmt.Errorf("unknown hint kind %q", rh.Kind)
	}
}
