package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/adspot-dev/adspot/internal/database/dbtest"
	"github.com/adspot-dev/adspot/internal/models"
)

func run(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	return cmd.Execute()
}

func newEnv(t *testing.T) (*gorm.DB, *bytes.Buffer, []Option) {
	t.Helper()
	db := dbtest.Open(t)
	out := &bytes.Buffer{}
	return db, out, []Option{WithDB(db), WithOutput(out)}
}

func TestUserCreate(t *testing.T) {
	db, out, opts := newEnv(t)

	err := run(t, NewUserCmd(opts...), "create", "--email", "Ops@Example.com", "--name", "Ops", "--password", "password123", "--admin")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Created user ops@example.com")
	assert.Contains(t, out.String(), "Role: Admin")

	var user models.User
	require.NoError(t, db.Where("email = ?", "ops@example.com").First(&user).Error)
	var roles int64
	require.NoError(t, db.Model(&models.AdminRole{}).Where("user_id = ?", user.ID).Count(&roles).Error)
	assert.Equal(t, int64(1), roles)

	err = run(t, NewUserCmd(opts...), "create", "--email", "ops@example.com", "--password", "password123")
	assert.ErrorContains(t, err, "already exists")

	err = run(t, NewUserCmd(opts...), "create", "--email", "short@example.com", "--password", "123")
	assert.Error(t, err)
}

func TestUserCreate_RequiresEmail(t *testing.T) {
	_, _, opts := newEnv(t)
	err := run(t, NewUserCmd(opts...), "create", "--password", "password123")
	assert.Error(t, err)
}

func TestAdminGrantRevokeList(t *testing.T) {
	_, out, opts := newEnv(t)

	require.NoError(t, run(t, NewUserCmd(opts...), "create", "--email", "first@example.com", "--password", "password123", "--admin"))
	require.NoError(t, run(t, NewUserCmd(opts...), "create", "--email", "second@example.com", "--password", "password123"))

	err := run(t, NewAdminCmd(opts...), "revoke", "first@example.com")
	assert.ErrorContains(t, err, "last administrator")

	err = run(t, NewAdminCmd(opts...), "revoke", "second@example.com")
	assert.ErrorContains(t, err, "not an administrator")

	err = run(t, NewAdminCmd(opts...), "grant", "nobody@example.com")
	assert.ErrorContains(t, err, "no user with email")

	require.NoError(t, run(t, NewAdminCmd(opts...), "grant", "second@example.com"))
	require.NoError(t, run(t, NewAdminCmd(opts...), "revoke", "first@example.com"))

	out.Reset()
	require.NoError(t, run(t, NewAdminCmd(opts...), "ls"))
	assert.Contains(t, out.String(), "second@example.com")
	assert.NotContains(t, out.String(), "first@example.com")
}

func TestAdminList_Empty(t *testing.T) {
	_, out, opts := newEnv(t)
	require.NoError(t, run(t, NewAdminCmd(opts...), "list"))
	assert.Contains(t, out.String(), "No administrators found.")
}

const seed = `billboards:
  - name: Sunset Strip
    location: 8500 Sunset Blvd, Los Angeles
    lat: 34.09
    lng: -118.38
    size: "20' x 60'"
    weeklyImpressions: 150000
  - name: Harbor Freeway
    location: 110 Freeway, Los Angeles
    size:
      width: 14
      height: 48
      isBothSides: true
    weeklyImpressions: 90000
    isPaused: true
`

func TestCatalogImportAndList(t *testing.T) {
	_, out, opts := newEnv(t)

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	require.NoError(t, run(t, NewCatalogCmd(opts...), "import", path))
	assert.Contains(t, out.String(), "2 created, 0 updated")

	out.Reset()
	require.NoError(t, run(t, NewCatalogCmd(opts...), "import", path))
	assert.Contains(t, out.String(), "0 created, 2 updated")

	out.Reset()
	require.NoError(t, run(t, NewCatalogCmd(opts...), "ls"))
	assert.Contains(t, out.String(), "Sunset Strip")
	assert.Contains(t, out.String(), "150,000")
	assert.Contains(t, out.String(), "14 x 48 (Both Sides)")
	assert.Contains(t, out.String(), "paused")

	out.Reset()
	require.NoError(t, run(t, NewCatalogCmd(opts...), "ls", "--active"))
	assert.Contains(t, out.String(), "Sunset Strip")
	assert.NotContains(t, out.String(), "Harbor Freeway")
}

func TestCatalogImport_InvalidEntryWritesNothing(t *testing.T) {
	db, _, opts := newEnv(t)

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`billboards:
  - name: Good Board
    location: 1 Main Street
    size: 10 x 20
    weeklyImpressions: 1000
  - name: B
    location: nowhere
    size: 10 x 20
    weeklyImpressions: 0
`), 0o600))

	err := run(t, NewCatalogCmd(opts...), "import", path)
	assert.ErrorContains(t, err, "billboard 2")

	var count int64
	require.NoError(t, db.Model(&models.Billboard{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCatalogImport_MissingFile(t *testing.T) {
	_, _, opts := newEnv(t)
	err := run(t, NewCatalogCmd(opts...), "import", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to open seed file")
}
