package migrations

import (
	"io/fs"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListOrdersAndSkipsNonSQL(t *testing.T) {
	src := fstest.MapFS{
		"002_more.sql":  {Data: []byte("SELECT 2;")},
		"001_init.sql":  {Data: []byte("SELECT 1;")},
		"README.md":     {Data: []byte("docs")},
		"010_later.sql": {Data: []byte("SELECT 10;")},
	}

	list, err := List(src)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "001", list[0].Version)
	assert.Equal(t, "002", list[1].Version)
	assert.Equal(t, "010_later.sql", list[2].Filename)
}

func readInit(t *testing.T) string {
	t.Helper()
	b, err := fs.ReadFile(Source(), "001_init.sql")
	require.NoError(t, err)
	return string(b)
}

func TestSchemaCascades(t *testing.T) {
	sql := readInit(t)

	cascades := map[string]string{
		"course_modules": `course_id\s+BIGINT\s+NOT NULL REFERENCES courses \(id\) ON DELETE CASCADE`,
		"lessons":        `module_id\s+BIGINT\s+NOT NULL REFERENCES course_modules \(id\) ON DELETE CASCADE`,
		"sessions":       `workshop_id\s+BIGINT\s+NOT NULL REFERENCES workshops \(id\) ON DELETE CASCADE`,
		"questions":      `homework_id BIGINT\s+NOT NULL REFERENCES homework \(id\) ON DELETE CASCADE`,
	}
	for name, pattern := range cascades {
		assert.Regexp(t, regexp.MustCompile(pattern), sql, name)
	}
}

func TestSchemaMembershipKeys(t *testing.T) {
	sql := readInit(t)
	assert.Contains(t, sql, "PRIMARY KEY (workshop_id, user_id)")
	assert.Contains(t, sql, "PRIMARY KEY (course_id, user_id)")
	assert.Contains(t, sql, "PRIMARY KEY (user_id, achievement_id)")
	assert.Contains(t, sql, "UNIQUE (question_id, user_id)")
	assert.Contains(t, sql, "CONSTRAINT users_email_key UNIQUE (email)")
}
