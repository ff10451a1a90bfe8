package provision

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"ShopAdmin/internal/db"
	"ShopAdmin/internal/passwords"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func openStore(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "admin.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

var hasher = passwords.Bcrypt{Cost: bcrypt.MinCost}

func TestEnsureSeedAdminIsIdempotent(t *testing.T) {
	ctx := context.Background()
	d := openStore(t)

	created, err := EnsureSeedAdmin(ctx, d, hasher, "Owner@Shop.com", "first-pass", "Owner")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = EnsureSeedAdmin(ctx, d, hasher, "owner@shop.com", "second-pass", "Someone Else")
	require.NoError(t, err)
	assert.False(t, created)

	a, err := d.FindActiveAdminByEmail(ctx, "owner@shop.com")
	require.NoError(t, err)
	assert.Equal(t, "Owner", a.FullName)
	ok, err := passwords.Verify("first-pass", a.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok, "existing password must not be overwritten")

	admins, err := List(ctx, d)
	require.NoError(t, err)
	assert.Len(t, admins, 1)
}

func TestEnsureSeedAdminDoesNotReactivate(t *testing.T) {
	ctx := context.Background()
	d := openStore(t)

	_, err := EnsureSeedAdmin(ctx, d, hasher, "owner@shop.com", "pw", "Owner")
	require.NoError(t, err)
	require.NoError(t, SetActive(ctx, d, "owner@shop.com", false))

	created, err := EnsureSeedAdmin(ctx, d, hasher, "owner@shop.com", "pw", "Owner")
	require.NoError(t, err)
	assert.False(t, created)

	_, err = d.FindActiveAdminByEmail(ctx, "owner@shop.com")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestEnsureSeedAdminFailures(t *testing.T) {
	ctx := context.Background()
	d := openStore(t)

	_, err := EnsureSeedAdmin(ctx, d, hasher, "owner@shop.com", "", "Owner")
	assert.ErrorIs(t, err, passwords.ErrEmptyPassword)

	_, err = EnsureSeedAdmin(ctx, d, hasher, "not-an-email", "pw", "Owner")
	assert.Error(t, err)

	require.NoError(t, d.Close())
	_, err = EnsureSeedAdmin(ctx, d, hasher, "owner@shop.com", "pw", "Owner")
	assert.Error(t, err)
}

func TestCreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	d := openStore(t)

	id, err := Create(ctx, d, hasher, "ops@shop.com", "pw", " Ops ")
	require.NoError(t, err)
	assert.Positive(t, id)

	_, err = Create(ctx, d, hasher, "OPS@shop.com", "pw", "Ops")
	assert.ErrorIs(t, err, ErrExists)

	require.NoError(t, SetPassword(ctx, d, hasher, "ops@shop.com", "new-pw"))
	a, err := d.GetAdminByEmail(ctx, "ops@shop.com")
	require.NoError(t, err)
	assert.Equal(t, "Ops", a.FullName)
	ok, err := passwords.Verify("new-pw", a.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, SetActive(ctx, d, "ops@shop.com", false))
	require.NoError(t, SetActive(ctx, d, "ops@shop.com", true))

	assert.ErrorIs(t, SetActive(ctx, d, "nobody@shop.com", false), ErrNotFound)
	assert.ErrorIs(t, SetPassword(ctx, d, hasher, "nobody@shop.com", "pw"), ErrNotFound)
}

func TestReadConfirmed(t *testing.T) {
	lines := []string{"a\n", "b\n", "\n", "\n", "secret\n", "secret\n"}
	read := func() (string, error) {
		if len(lines) == 0 {
			return "", errors.New("eof")
		}
		s := lines[0]
		lines = lines[1:]
		return s, nil
	}
	var out bytes.Buffer
	p, err := readConfirmed("Password", read, &out)
	require.NoError(t, err)
	assert.Equal(t, "secret", p)
	assert.Contains(t, out.String(), "passwords do not match")
	assert.Contains(t, out.String(), "password cannot be empty")
}

func TestReadConfirmedKeepsSurroundingSpaces(t *testing.T) {
	lines := []string{" pw \r\n", " pw \r\n"}
	read := func() (string, error) {
		s := lines[0]
		lines = lines[1:]
		return s, nil
	}
	p, err := readConfirmed("Password", read, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, " pw ", p)

	ctx := context.Background()
	d := openStore(t)
	_, err = Create(ctx, d, hasher, "ops@shop.com", p, "Ops")
	require.NoError(t, err)
	a, err := d.GetAdminByEmail(ctx, "ops@shop.com")
	require.NoError(t, err)
	ok, err := passwords.Verify(" pw ", a.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResolvePasswordFromEnv(t *testing.T) {
	t.Setenv("SHOPADMIN_TEST_PW", "from-env")
	p, err := ResolvePassword("SHOPADMIN_TEST_PW")
	require.NoError(t, err)
	assert.Equal(t, "from-env", p)

	t.Setenv("SHOPADMIN_TEST_PW", "")
	_, err = ResolvePassword("SHOPADMIN_TEST_PW")
	assert.Error(t, err)
}
