package sqlbase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeDialect struct{ p Placeholder }

func (d fakeDialect) Placeholders() Placeholder      { return d.p }
func (d fakeDialect) IsUniqueViolation(error) bool { return false }

func TestRebind(t *testing.T) {
	tests := []struct {
		name  string
		p     Placeholder
		query string
		want  string
	}{
		{"question untouched", Question, "SELECT 1 FROM t WHERE a = ? AND b = ?", "SELECT 1 FROM t WHERE a = ? AND b = ?"},
		{"dollar numbered", Dollar, "SELECT 1 FROM t WHERE a = ? AND b = ?", "SELECT 1 FROM t WHERE a = $1 AND b = $2"},
		{"no params", Dollar, "SELECT COUNT(*) FROM completions", "SELECT COUNT(*) FROM completions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &Ledger{Dialect: fakeDialect{tt.p}}
			assert.Equal(t, tt.want, l.rebind(tt.query))
		})
	}
}

func TestEncodeCategory(t *testing.T) {
	empty, err := encodeCategory(nil)
	assert.NoError(t, err)
	assert.False(t, empty.Valid)

	tags, err := encodeCategory([]string{"health", "morning"})
	assert.NoError(t, err)
	assert.True(t, tags.Valid)
	assert.Equal(t, `["health","morning"]`, tags.String)
}
