package secrets

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyring_RoundTrip(t *testing.T) {
	keyring.MockInit()
	k := Keyring{Service: "accord-test", User: "postgres-dsn"}

	_, err := k.Get()
	require.ErrorIs(t, err, ErrNotFound)

	require.Error(t, k.Set(""))
	require.NoError(t, k.Set("postgres://db/accord"))

	dsn, err := k.Get()
	require.NoError(t, err)
	require.Equal(t, "postgres://db/accord", dsn)

	require.NoError(t, k.Delete())
	require.ErrorIs(t, k.Delete(), ErrNotFound)
}

func TestKeyring_ResolveDSN(t *testing.T) {
	keyring.MockInit()
	k := Keyring{Service: "accord-test", User: "postgres-dsn"}

	dsn, err := k.ResolveDSN("postgres://configured")
	require.NoError(t, err)
	require.Equal(t, "postgres://configured", dsn)

	_, err = k.ResolveDSN("")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, k.Set("postgres://stored"))
	dsn, err = k.ResolveDSN("")
	require.NoError(t, err)
	require.Equal(t, "postgres://stored", dsn)
}

func TestKeyring_Unavailable(t *testing.T) {
	keyring.MockInitWithError(errors.New("no dbus"))
	_, err := Keyring{Service: "accord-test", User: "x"}.Get()
	require.ErrorIs(t, err, ErrKeyringUnavailable)
}
