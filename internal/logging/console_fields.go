package logging

import "strings"

type infoField struct {
	label string
	value string
}

const infoAttrLimit = 6

// Keys surfaced first at info level; everything else competes for the
// remaining slots in record order.
var infoHighlightKeys = []string{
	FieldAlert,
	FieldEventType,
	FieldDecisionType,
	"decision_result",
	"decision_reason",
	FieldErrorHint,
	FieldImpact,
	"error",
	"bpm",
	"clip_count",
	"duration_seconds",
	"cache_hit",
	"mood",
}

// Keys already rendered in the header or too noisy for info output.
var infoSuppressedKeys = map[string]struct{}{
	FieldComponent:     {},
	FieldJobReference:  {},
	FieldStage:         {},
	FieldCorrelationID: {},
}

func selectInfoFields(attrs []kv, limit int) ([]infoField, int) {
	if limit <= 0 {
		limit = infoAttrLimit
	}
	byKey := make(map[string]kv, len(attrs))
	order := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		if _, skip := infoSuppressedKeys[attr.key]; skip {
			continue
		}
		if _, ok := byKey[attr.key]; !ok {
			order = append(order, attr.key)
		}
		byKey[attr.key] = attr
	}

	fields := make([]infoField, 0, limit)
	used := make(map[string]struct{}, limit)
	add := func(key string) {
		attr, ok := byKey[key]
		if !ok {
			return
		}
		if _, done := used[key]; done {
			return
		}
		used[key] = struct{}{}
		if len(fields) < limit {
			fields = append(fields, infoField{label: humanLabel(key), value: formatValue(attr.value)})
		}
	}
	for _, key := range infoHighlightKeys {
		add(key)
	}
	for _, key := range order {
		add(key)
	}
	return fields, len(used) - len(fields)
}

func humanLabel(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}
