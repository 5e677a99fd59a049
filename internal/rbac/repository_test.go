package rbac

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var insertRolePermissionsRE = regexp.MustCompile(`INSERT INTO role_permissions \(([^)]+)\)`)

// Pins the role_permissions insert column list to the migration DDL so a
// drifted column name fails here instead of as a 42703 at runtime.
func TestReplaceRolePermissionsColumnsMatchSchema(t *testing.T) {
	schema := migrationColumns(t, "role_permissions")

	src, err := os.ReadFile("repository.go")
	require.NoError(t, err)

	matches := insertRolePermissionsRE.FindAllStringSubmatch(string(src), -1)
	require.NotEmpty(t, matches)
	for _, m := range matches {
		for _, col := range strings.Split(m[1], ",") {
			require.Contains(t, schema, strings.TrimSpace(col))
		}
	}
}

func migrationColumns(t *testing.T, table string) map[string]bool {
	t.Helper()

	ddl, err := os.ReadFile("../../db/migrations/0001_init.sql")
	require.NoError(t, err)

	re := regexp.MustCompile(`(?s)CREATE TABLE ` + table + ` \((.*?)\);`)
	m := re.FindStringSubmatch(string(ddl))
	require.NotNil(t, m, "table %s not found in migration", table)

	cols := make(map[string]bool)
	for _, line := range strings.Split(m[1], "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 || strings.EqualFold(fields[0], "PRIMARY") {
			continue
		}
		cols[fields[0]] = true
	}
	return cols
}
