package source

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kilianp07/splan/core/model"
	"github.com/kilianp07/splan/core/textnorm"
)

// DefaultTimeKey is the row field read when an entity row has no "time".
const DefaultTimeKey = "Stunde"

// DecodeValue turns an entity state or attribute into a JSON value. Strings
// are parsed as JSON; blank or invalid strings yield nil. Other values are
// returned unchanged.
func DecodeValue(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var out any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

// EntityRows builds rows from an entity value holding an array of objects
// with a time field (or timeKey) and one field per day name. It returns nil
// when the value is not a non-empty array of objects.
func EntityRows(v any, days []string, timeKey string) []model.Row {
	items, ok := DecodeValue(v).([]any)
	if !ok {
		return nil
	}
	if timeKey == "" {
		timeKey = DefaultTimeKey
	}
	var rows []model.Row
	for _, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			continue
		}
		label := stringValue(obj["time"])
		if _, present := obj["time"]; !present || obj["time"] == nil {
			label = stringValue(obj[timeKey])
		}
		if b, _ := obj["break"].(bool); b {
			rows = append(rows, model.NewBreakRow(label, stringValue(obj["label"])))
			continue
		}
		start, end, _ := textnorm.ParseTimeRange(label)
		cells := make([]string, len(days))
		for i, d := range days {
			cells[i] = stringValue(obj[d])
		}
		rows = append(rows, model.Row{Time: label, Start: start, End: end, Cells: cells})
	}
	return rows
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
