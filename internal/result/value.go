package result

import (
	"strconv"
	"time"
)

// Value holds one tracked registration field. The zero value is "unset", which
// is a different state from an empty string or a numeric zero: an unset field
// was never computed/synced, while "0" is a real value. The diff logic depends
// on that distinction.
type Value struct {
	raw string
	set bool
}

// StringValue returns a set Value holding s.
func StringValue(s string) Value {
	return Value{raw: s, set: true}
}

// IntValue returns a set Value holding the decimal rendering of n.
func IntValue(n int) Value {
	return Value{raw: strconv.Itoa(n), set: true}
}

// EpochValue returns a set Value holding a unix timestamp (seconds).
func EpochValue(ts int64) Value {
	return Value{raw: strconv.FormatInt(ts, 10), set: true}
}

// IsSet reports whether the value was ever assigned.
func (v Value) IsSet() bool { return v.set }

// Raw returns the stored text. Empty for unset values.
func (v Value) Raw() string { return v.raw }

// isEmpty mirrors the host's falsy check: unset, empty string, and the literal
// zero all count as empty. Operations are never emitted for empty snapshot
// values, which is what makes a transition to progresspercent 0 unreachable.
func (v Value) isEmpty() bool {
	return !v.set || v.raw == "" || v.raw == "0"
}

// equal compares two values under the per-field policy. Unset only equals
// unset. Numeric fields compare by normalized numeric value so that 80,
// "80" and "80.0" are the same; values that do not parse fall back to exact
// string comparison.
func (v Value) equal(o Value, numeric bool) bool {
	if v.set != o.set {
		return false
	}
	if !v.set {
		return true
	}
	if numeric {
		a, errA := strconv.ParseFloat(v.raw, 64)
		b, errB := strconv.ParseFloat(o.raw, 64)
		if errA == nil && errB == nil {
			return a == b
		}
	}
	return v.raw == o.raw
}

// tmsTimestampLayout is the fixed wire format the TMS expects for
// LastActivityDateTime. Milliseconds and offset are constant because the LMS
// only records whole seconds and all timestamps are normalized to UTC.
const tmsTimestampLayout = "2006-01-02T15:04:05.000+00:00"

// formatEpoch renders an epoch-seconds value as a TMS timestamp string.
// Non-numeric raw values are passed through untouched.
func formatEpoch(v Value) string {
	ts, err := strconv.ParseInt(v.raw, 10, 64)
	if err != nil {
		return v.raw
	}
	return time.Unix(ts, 0).UTC().Format(tmsTimestampLayout)
}

// EpochFromTimestamp parses a TMS wire timestamp back to epoch seconds.
// Baselines store activity as epoch text; listings that echo the rendered
// LastActivityDateTime form go through here so they compare cleanly against
// computed snapshots.
func EpochFromTimestamp(s string) (int64, bool) {
	t, err := time.Parse(tmsTimestampLayout, s)
	if err != nil {
		return 0, false
	}
	return t.Unix(), true
}
