package service

import (
	"encoding/json"
	"strings"

	"uniplanner/modules/event/entity"
)

// Older clients stored series identity inside the description as
// "[META]{...json...}[META]". It is read for matching and stripped on backfill.
const legacyMetaMarker = "[META]"

type LegacyMeta struct {
	TemplateID   string
	SeriesID     string
	RepeatOption string
}

// Key returns the strongest identity the block carries and whether it is
// only a repeat option, which needs a title match to be meaningful.
func (m LegacyMeta) Key() (key string, weak bool) {
	switch {
	case m.TemplateID != "":
		return entity.MetaKeyTemplateID + ":" + m.TemplateID, false
	case m.SeriesID != "":
		return entity.MetaKeySeriesID + ":" + m.SeriesID, false
	case m.RepeatOption != "":
		return entity.MetaKeyRepeatOption + ":" + m.RepeatOption, true
	}
	return "", false
}

func legacyBlock(description string) (start, end int, ok bool) {
	start = strings.Index(description, legacyMetaMarker)
	if start < 0 {
		return 0, 0, false
	}
	rest := description[start+len(legacyMetaMarker):]
	closing := strings.Index(rest, legacyMetaMarker)
	if closing < 0 {
		return 0, 0, false
	}
	end = start + len(legacyMetaMarker) + closing + len(legacyMetaMarker)
	return start, end, true
}

// ParseLegacyMeta extracts the embedded block from a description. Malformed
// blocks are treated as absent.
func ParseLegacyMeta(description *string) (LegacyMeta, bool) {
	if description == nil {
		return LegacyMeta{}, false
	}
	start, end, ok := legacyBlock(*description)
	if !ok {
		return LegacyMeta{}, false
	}
	inner := (*description)[start+len(legacyMetaMarker) : end-len(legacyMetaMarker)]

	var raw map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(inner)), &raw); err != nil {
		return LegacyMeta{}, false
	}
	m := LegacyMeta{
		TemplateID:   stringField(raw, entity.MetaKeyTemplateID),
		SeriesID:     stringField(raw, entity.MetaKeySeriesID),
		RepeatOption: stringField(raw, entity.MetaKeyRepeatOption),
	}
	if key, _ := m.Key(); key == "" {
		return LegacyMeta{}, false
	}
	return m, true
}

// StripLegacyMeta removes the embedded block and trims what is left.
func StripLegacyMeta(description string) string {
	start, end, ok := legacyBlock(description)
	if !ok {
		return description
	}
	return strings.TrimSpace(description[:start] + description[end:])
}

func stringField(raw map[string]any, key string) string {
	switch v := raw[key].(type) {
	case string:
		return v
	case float64:
		b, _ := json.Marshal(v)
		return string(b)
	}
	return ""
}
