package migrations_test

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keyColumnType = regexp.MustCompile(`(?i)\bkey\s+(?:TYPE\s+)?(TEXT|VARCHAR\(\d+\))`)

func readAll(t *testing.T, r io.ReadCloser) string {
	t.Helper()
	defer r.Close()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(b)
}

// upMigrations returns the up scripts in version order and checks that
// every version can be rolled back.
func upMigrations(t *testing.T) []string {
	t.Helper()
	src, err := iofs.New(os.DirFS("."), ".")
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	var ups []string
	v, err := src.First()
	require.NoError(t, err)
	for {
		up, _, err := src.ReadUp(v)
		require.NoError(t, err)
		ups = append(ups, readAll(t, up))

		down, _, err := src.ReadDown(v)
		require.NoError(t, err, "version %d has no down migration", v)
		readAll(t, down)

		next, err := src.Next(v)
		if errors.Is(err, fs.ErrNotExist) {
			return ups
		}
		require.NoError(t, err)
		v = next
	}
}

func TestMigrations(t *testing.T) {
	ups := upMigrations(t)
	require.NotEmpty(t, ups)

	t.Run("SlotKeyIsUnbounded", func(t *testing.T) {
		var keyType string
		for _, script := range ups {
			for _, m := range keyColumnType.FindAllStringSubmatch(script, -1) {
				keyType = strings.ToUpper(m[1])
			}
		}
		// a long configured cart.key plus a 64 char cart id must fit
		assert.Equal(t, "TEXT", keyType)
	})
}
