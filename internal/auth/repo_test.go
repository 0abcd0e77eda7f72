package auth

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Columns of the sessions table as the seeder creates it. The insert
// statement must stay within this set or every write fails at runtime.
var sessionTableColumns = map[string]bool{
	"id":         true,
	"user_id":    true,
	"expires_at": true,
	"ip":         true,
	"user_agent": true,
	"created_at": true,
}

func TestCreateSessionTargetsKnownColumns(t *testing.T) {
	columnList := regexp.MustCompile(`INSERT INTO sessions \(([^)]+)\)`).FindStringSubmatch(createSessionSQL)
	require.Len(t, columnList, 2, "insert statement should name its columns")

	columns := strings.Split(columnList[1], ",")
	require.NotEmpty(t, columns)
	for _, column := range columns {
		name := strings.TrimSpace(column)
		require.True(t, sessionTableColumns[name], "column %q is not in the sessions table", name)
	}
}
