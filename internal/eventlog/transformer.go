package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/rs/zerolog/log"
)

// Record is one line of an import file. Time carries the combined date and
// time of the observation.
type Record struct {
	Kind  Kind     `json:"kind"`
	Time  string   `json:"time"`
	Value any      `json:"value,omitempty"`
	Dose  *float64 `json:"dose,omitempty"`
	Carbs *float64 `json:"carbs,omitempty"`
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
}

// ParseTime parses an import timestamp. Times are kept as wall-clock time
// in UTC so that time-of-day analysis is independent of the host zone.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return wallClock(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// TransformRecord converts an import record into an Event with Seq 0.
func TransformRecord(r Record) (Event, error) {
	ts, err := ParseTime(r.Time)
	if err != nil {
		return Event{}, err
	}
	e := Event{Kind: r.Kind, Timestamp: ts.UnixMicro()}

	switch r.Kind {
	case Glucose:
		switch v := r.Value.(type) {
		case float64:
			e.Value = &v
		case string:
			e.Raw = v
		case nil:
		default:
			e.Raw = fmt.Sprint(v)
		}
	case Insulin:
		if r.Dose == nil || *r.Dose < 0 || math.IsNaN(*r.Dose) || math.IsInf(*r.Dose, 0) {
			return Event{}, fmt.Errorf("insulin record at %s has no valid dose", r.Time)
		}
		e.Dose = *r.Dose
	case Meal:
		if r.Carbs != nil && *r.Carbs >= 0 && !math.IsInf(*r.Carbs, 0) {
			carbs := *r.Carbs
			e.Carbs = &carbs
		}
	default:
		return Event{}, fmt.Errorf("unknown record kind %q", r.Kind)
	}
	return e, nil
}

// TransformRecords converts import records into Events. Records sharing kind
// and timestamp are numbered in input order. Invalid records are skipped and
// counted.
func TransformRecords(records []Record) ([]Event, int) {
	type slot struct {
		kind Kind
		ts   int64
	}
	next := make(map[slot]int)

	events := make([]Event, 0, len(records))
	skipped := 0
	for _, r := range records {
		e, err := TransformRecord(r)
		if err != nil {
			log.Debug().Err(err).Msg("Skipping import record")
			skipped++
			continue
		}
		k := slot{e.Kind, e.Timestamp}
		e.Seq = next[k]
		next[k]++
		events = append(events, e)
	}
	return events, skipped
}

// DecodeRecords reads JSONL import records. Lines that are not valid JSON
// are skipped.
func DecodeRecords(r io.Reader) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			log.Warn().Err(err).Int("line", line).Msg("Skipping invalid JSON line in import")
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func decodeEvents(r io.Reader, sourceID string) ([]Event, error) {
	var events []Event
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		var e Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			log.Warn().Err(err).Str("source", sourceID).Msg("Skipping invalid JSON line in cache")
			continue
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
