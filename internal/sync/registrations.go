package sync

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"enrol-sync/internal/providers/tms"
	"enrol-sync/internal/result"
)

// FetchRegistrations pages through the TMS registration listing and maps the
// rows into baselines. Rows without a registration id or without both host
// ids (course, user) are skipped: they cannot be synced and usually belong to
// registrations created outside the LMS integration.
//
// limit: request page size (recommended 200-500)
// maxPages: 0 means iterate until the backend stops returning data.
func FetchRegistrations(ctx context.Context, c *tms.Client, courseRef string, limit, maxPages int) ([]result.Baseline, error) {
	if limit <= 0 {
		limit = 200
	}
	if maxPages < 0 {
		maxPages = 0
	}

	startIndex := 0
	page := 0
	out := make([]result.Baseline, 0, 1024)

	for {
		page++
		if maxPages > 0 && page > maxPages {
			break
		}

		rows, meta, err := c.ListRegistrationsPage(ctx, courseRef, startIndex, limit)
		if err != nil {
			return nil, err
		}

		out = append(out, mapRegistrationRows(rows)...)

		if len(rows) == 0 {
			break
		}
		if meta.PageTotalCount <= 0 {
			// Unknown paging; stop.
			break
		}
		startIndex = meta.PageStartIndex + meta.PageTotalCount
		if meta.TotalCount > 0 && startIndex >= meta.TotalCount {
			break
		}
	}

	return out, nil
}

func mapRegistrationRows(rows []map[string]any) []result.Baseline {
	out := make([]result.Baseline, 0, len(rows))
	for _, r := range rows {
		b := result.Baseline{
			RegistrationID: getString(r, "registrationId", "registration_id", "id"),
		}
		if b.RegistrationID == "" {
			continue
		}
		b.CourseID = getInt(r, "lmsCourseId", "lms_course_id", "courseid")
		b.UserID = getInt(r, "lmsUserId", "lms_user_id", "userid")
		if b.CourseID == 0 || b.UserID == 0 {
			continue
		}

		if v, ok := getField(r, "grade"); ok {
			b.Grade = result.StringValue(v)
		}
		if v, ok := getField(r, "outcome"); ok {
			b.Outcome = result.StringValue(v)
		}
		if v, ok := getField(r, "lastActivity", "last_activity", "lastactivity"); ok {
			b.LastActivity = result.StringValue(normalizeLastActivity(v))
		}
		if v, ok := getField(r, "progressStatus", "progress_status", "progressstatus"); ok {
			b.ProgressStatus = result.StringValue(v)
		}
		if v, ok := getField(r, "progressPercent", "progress_percent", "progresspercent"); ok {
			b.ProgressPercent = result.StringValue(v)
		}

		out = append(out, b)
	}
	return out
}

// normalizeLastActivity keeps baseline activity in epoch-seconds text, the
// form snapshots compute. Listings normally return epoch seconds, but a row
// echoing the rendered LastActivityDateTime form is folded back to epoch so an
// identical timestamp never diffs as a change.
func normalizeLastActivity(v string) string {
	if _, err := strconv.ParseInt(v, 10, 64); err == nil {
		return v
	}
	if ts, ok := result.EpochFromTimestamp(v); ok {
		return strconv.FormatInt(ts, 10)
	}
	return v
}

// getField returns the row value as text plus whether the key was present at
// all. Presence matters: an absent field maps to an unset baseline value,
// which the diff treats differently from an empty one.
func getField(m map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return anyToString(v), true
		}
	}
	return "", false
}

func getString(m map[string]any, keys ...string) string {
	v, _ := getField(m, keys...)
	return strings.TrimSpace(v)
}

func getInt(m map[string]any, keys ...string) int64 {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			switch t := v.(type) {
			case float64:
				return int64(t)
			case int:
				return int64(t)
			case int64:
				return t
			case string:
				n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
				if err == nil {
					return n
				}
			case jsonNumber:
				f, err := t.Float64()
				if err == nil {
					return int64(f)
				}
			}
		}
	}
	return 0
}

func anyToString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers arrive as float64; render integers without the
		// trailing ".0" so they compare cleanly against computed values.
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// jsonNumber is a tiny interface to avoid importing encoding/json in this file.
type jsonNumber interface {
	Float64() (float64, error)
}
