package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/datrs/hypercore/crypto/sign"
	"github.com/datrs/hypercore/hypercore"
)

func TestRunInfoAgainstFreshlyAppendedCore(t *testing.T) {
	tmp := t.TempDir()
	dir = tmp

	keys, err := sign.GenerateKeyPair()
	require.NoError(t, err)

	core, err := hypercore.OpenDir(tmp, keys, hypercore.Config{})
	require.NoError(t, err)
	_, err = core.Append([][]byte{[]byte("a"), []byte("b")})
	require.NoError(t, err)
	require.NoError(t, core.Close())

	require.NoError(t, runInfo(infoCmd, nil))
}

func TestRunDiscoveryKeyAgainstFreshCore(t *testing.T) {
	tmp := t.TempDir()
	dir = tmp

	keys, err := sign.GenerateKeyPair()
	require.NoError(t, err)

	core, err := hypercore.OpenDir(tmp, keys, hypercore.Config{})
	require.NoError(t, err)
	require.NoError(t, core.Close())

	require.NoError(t, runDiscoveryKey(discoveryKeyCmd, nil))
}

func TestRunAuditAgainstFreshlyAppendedCore(t *testing.T) {
	tmp := t.TempDir()
	dir = tmp

	keys, err := sign.GenerateKeyPair()
	require.NoError(t, err)

	core, err := hypercore.OpenDir(tmp, keys, hypercore.Config{})
	require.NoError(t, err)
	_, err = core.Append([][]byte{[]byte("a"), []byte("b")})
	require.NoError(t, err)
	require.NoError(t, core.Close())

	require.NoError(t, runAudit(auditCmd, nil))
}
