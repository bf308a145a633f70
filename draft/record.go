package draft

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kbukum/draftkit/errors"
)

// Record is one stored draft: the serialized value and when it was written.
type Record struct {
	LastSaved time.Time `json:"lastSaved"`
	Value     string    `json:"value"`
}

// Age returns how long ago the record was saved relative to now.
func (r Record) Age(now time.Time) time.Duration {
	return now.Sub(r.LastSaved)
}

// EncodeRecord renders {"<lastSavedKey>": <epoch ms>, "value": "<value>"}.
func EncodeRecord(rec Record, lastSavedKey string) (string, error) {
	var buf bytes.Buffer
	key, err := json.Marshal(lastSavedKey)
	if err != nil {
		return "", err
	}
	value, err := json.Marshal(rec.Value)
	if err != nil {
		return "", err
	}
	buf.WriteByte('{')
	buf.Write(key)
	fmt.Fprintf(&buf, ":%d,\"value\":", rec.LastSaved.UnixMilli())
	buf.Write(value)
	buf.WriteByte('}')
	return buf.String(), nil
}

// DecodeRecord parses a stored record. A missing timestamp decodes as the
// zero time; anything else malformed is a CORRUPT_DRAFT error.
func DecodeRecord(key, raw, lastSavedKey string) (Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return Record{}, errors.CorruptDraft(key, err)
	}

	var rec Record
	rawValue, ok := fields["value"]
	if !ok {
		return Record{}, errors.CorruptDraft(key, fmt.Errorf("missing value field"))
	}
	if err := json.Unmarshal(rawValue, &rec.Value); err != nil {
		return Record{}, errors.CorruptDraft(key, fmt.Errorf("value is not a string: %w", err))
	}

	if rawTS, ok := fields[lastSavedKey]; ok && string(rawTS) != "null" {
		var ms float64
		if err := json.Unmarshal(rawTS, &ms); err != nil {
			return Record{}, errors.CorruptDraft(key, fmt.Errorf("%s is not a number: %w", lastSavedKey, err))
		}
		// int64(ms) is undefined outside [-2^63, 2^63)
		if math.IsNaN(ms) || ms < -(1<<63) || ms >= 1<<63 {
			return Record{}, errors.CorruptDraft(key, fmt.Errorf("%s %g is out of range", lastSavedKey, ms))
		}
		rec.LastSaved = time.UnixMilli(int64(ms))
	}
	return rec, nil
}

// NormalizeKey appends suffix to key unless it is already there.
func NormalizeKey(key, suffix string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.MissingField("key")
	}
	if suffix == "" || strings.HasSuffix(key, suffix) {
		return key, nil
	}
	return key + suffix, nil
}

// stamp truncates t to the millisecond precision records store.
func stamp(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli())
}
