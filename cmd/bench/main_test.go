package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dvpolyakov/fixedset/internal/modarith"
)

func TestGenerateKeysDistinctResidues(t *testing.T) {
	const p = 13
	keys := generateKeys(p, hitSeed, p)
	require.Len(t, keys, p)

	seen := make(map[uint64]bool, p)
	for _, k := range keys {
		r := modarith.FloorMod(k, p)
		assert.False(t, seen[r], "residue %d repeated", r)
		seen[r] = true
	}
}

func TestGenerateKeysDeterministic(t *testing.T) {
	assert.Equal(t, generateKeys(1000, hitSeed, 2147483647), generateKeys(1000, hitSeed, 2147483647))
}

func TestGenerateMissesAvoidMembers(t *testing.T) {
	keys := generateKeys(1000, hitSeed, 2147483647)
	members := make(map[int64]struct{}, len(keys))
	for _, k := range keys {
		members[k] = struct{}{}
	}
	// Reusing the member seed makes the first candidates members.
	misses := generateMisses(100, hitSeed, members)
	require.Len(t, misses, 100)
	for _, m := range misses {
		assert.NotContains(t, members, m)
	}
}

func TestLoadOrGenerateRejectsMoreKeysThanResidues(t *testing.T) {
	_, err := loadOrGenerate(benchConfig{keys: 20, modulus: 13}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds --modulus 13")

	keys, err := loadOrGenerate(benchConfig{keys: 13, modulus: 13}, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, keys, 13)
}
