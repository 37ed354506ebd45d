package registrations

import (
	"fmt"
	"strings"
	"time"

	"github.com/evolve-africa/backend/internal/models"
)

// Filter holds the optional filter fields accepted by the filtered listing
// endpoints. Empty fields never constrain the result set.
type Filter struct {
	Search   string
	Session  string
	Date     string // calendar day, YYYY-MM-DD, interpreted in server-local time
	Location string
}

// Empty reports whether no filter fields are set.
func (f Filter) Empty() bool {
	return f.Search == "" && f.Session == "" && f.Date == "" && f.Location == ""
}

// Applied returns the non-empty filter fields keyed by name, echoed back in
// strict-filter responses.
func (f Filter) Applied() map[string]string {
	m := make(map[string]string)
	if f.Search != "" {
		m["search"] = f.Search
	}
	if f.Session != "" {
		m["session"] = f.Session
	}
	if f.Date != "" {
		m["date"] = f.Date
	}
	if f.Location != "" {
		m["location"] = f.Location
	}
	return m
}

// buildPredicate translates a Filter into a SQL WHERE clause and its
// arguments. Strict mode uses case-sensitive equality on the search fields
// and rejects unknown session values; lenient mode uses case-insensitive
// substring matching and ignores unknown session values. An empty filter
// yields an empty clause (unrestricted).
func buildPredicate(f Filter, strict bool) (string, []interface{}, error) {
	var conds []string
	var args []interface{}

	if f.Search != "" {
		if strict {
			args = append(args, f.Search)
			p := fmt.Sprintf("$%d", len(args))
			conds = append(conds, fmt.Sprintf("(first_name = %s OR last_name = %s OR email = %s)", p, p, p))
		} else {
			args = append(args, "%"+escapeLike(f.Search)+"%")
			p := fmt.Sprintf("$%d", len(args))
			conds = append(conds, fmt.Sprintf(`(first_name ILIKE %s ESCAPE '\' OR last_name ILIKE %s ESCAPE '\' OR email ILIKE %s ESCAPE '\')`, p, p, p))
		}
	}

	if f.Session != "" {
		if models.IsValidSession(f.Session) {
			args = append(args, f.Session)
			conds = append(conds, fmt.Sprintf("selected_session = $%d", len(args)))
		} else if strict {
			return "", nil, ErrInvalidSession
		}
		// lenient mode ignores unknown session values
	}

	if f.Date != "" {
		day, err := time.ParseInLocation("2006-01-02", f.Date, time.Local)
		if err != nil {
			return "", nil, ErrInvalidDate
		}
		// [00:00:00.000, 23:59:59.999] of the calendar day
		end := day.AddDate(0, 0, 1).Add(-time.Millisecond)
		args = append(args, day)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
		args = append(args, end)
		conds = append(conds, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	if f.Location != "" {
		args = append(args, f.Location)
		conds = append(conds, fmt.Sprintf("location = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE/ILIKE metacharacters so user search text always
// matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
