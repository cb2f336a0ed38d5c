package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSV(t *testing.T) {
	table := Table{
		Columns: []string{"Time", "Student"},
		Rows: [][]string{
			{"2026-09-01T10:00:00Z", "Student, Example"},
		},
	}

	out, err := CSV(table)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Time,Student", lines[0])
	assert.Equal(t, `2026-09-01T10:00:00Z,"Student, Example"`, lines[1])
}

func TestCSVRequiresColumns(t *testing.T) {
	_, err := CSV(Table{})
	assert.Error(t, err)
}

func TestPDF(t *testing.T) {
	table := Table{
		Columns: []string{"Time", "Student"},
		Rows:    [][]string{{"2026-09-01T10:00:00Z", "Student Example"}},
	}

	out, err := PDF(table, "Appointment Schedule")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
}
