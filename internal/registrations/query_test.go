package registrations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPredicate(t *testing.T) {
	tests := []struct {
		name      string
		filter    Filter
		strict    bool
		wantWhere string
		wantArgs  []interface{}
		wantErr   error
	}{
		{
			name:      "empty filter is unrestricted",
			filter:    Filter{},
			wantWhere: "",
			wantArgs:  nil,
		},
		{
			name:      "lenient search uses escaped substring pattern",
			filter:    Filter{Search: "doe"},
			wantWhere: ` WHERE (first_name ILIKE $1 ESCAPE '\' OR last_name ILIKE $1 ESCAPE '\' OR email ILIKE $1 ESCAPE '\')`,
			wantArgs:  []interface{}{"%doe%"},
		},
		{
			name:      "lenient search escapes percent and underscore",
			filter:    Filter{Search: "50%_off"},
			wantWhere: ` WHERE (first_name ILIKE $1 ESCAPE '\' OR last_name ILIKE $1 ESCAPE '\' OR email ILIKE $1 ESCAPE '\')`,
			wantArgs:  []interface{}{`%50\%\_off%`},
		},
		{
			name:      "strict search is exact equality",
			filter:    Filter{Search: "Doe"},
			strict:    true,
			wantWhere: ` WHERE (first_name = $1 OR last_name = $1 OR email = $1)`,
			wantArgs:  []interface{}{"Doe"},
		},
		{
			name:      "valid session constrains in both modes",
			filter:    Filter{Session: "Evening"},
			strict:    true,
			wantWhere: ` WHERE selected_session = $1`,
			wantArgs:  []interface{}{"Evening"},
		},
		{
			name:      "lenient mode ignores unknown session",
			filter:    Filter{Session: "Afternoon"},
			wantWhere: "",
			wantArgs:  nil,
		},
		{
			name:    "strict mode rejects unknown session",
			filter:  Filter{Session: "Afternoon"},
			strict:  true,
			wantErr: ErrInvalidSession,
		},
		{
			name:    "lowercase session is not canonical",
			filter:  Filter{Session: "morning"},
			strict:  true,
			wantErr: ErrInvalidSession,
		},
		{
			name:      "location matches case-sensitively",
			filter:    Filter{Location: "Nairobi"},
			wantWhere: ` WHERE location = $1`,
			wantArgs:  []interface{}{"Nairobi"},
		},
		{
			name:      "date filter spans the calendar day",
			filter:    Filter{Date: "2024-03-01"},
			wantWhere: ` WHERE created_at >= $1 AND created_at <= $2`,
			wantArgs: []interface{}{
				time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local),
				time.Date(2024, 3, 1, 23, 59, 59, 999000000, time.Local),
			},
		},
		{
			name:    "malformed date is rejected",
			filter:  Filter{Date: "03/01/2024"},
			wantErr: ErrInvalidDate,
		},
		{
			name:   "all filters combine with AND",
			filter: Filter{Search: "jane", Session: "Morning", Date: "2024-03-01", Location: "Nairobi"},
			wantWhere: ` WHERE (first_name ILIKE $1 ESCAPE '\' OR last_name ILIKE $1 ESCAPE '\' OR email ILIKE $1 ESCAPE '\')` +
				` AND selected_session = $2 AND created_at >= $3 AND created_at <= $4 AND location = $5`,
			wantArgs: []interface{}{
				"%jane%",
				"Morning",
				time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local),
				time.Date(2024, 3, 1, 23, 59, 59, 999000000, time.Local),
				"Nairobi",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args, err := buildPredicate(tt.filter, tt.strict)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{".*", ".*"}, // regex metacharacters carry no meaning in LIKE
		{"100%", `100\%`},
		{"a_b", `a\_b`},
		{`back\slash`, `back\\slash`},
		{`%_\`, `\%\_\\`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeLike(tt.in), "escapeLike(%q)", tt.in)
	}
}

func TestFilterEmptyAndApplied(t *testing.T) {
	assert.True(t, Filter{}.Empty())
	assert.False(t, Filter{Location: "Lagos"}.Empty())

	f := Filter{Search: "jo", Date: "2024-03-01"}
	assert.Equal(t, map[string]string{"search": "jo", "date": "2024-03-01"}, f.Applied())
	assert.Empty(t, Filter{}.Applied())
}
