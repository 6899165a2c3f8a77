package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSHA256Gate(t *testing.T) {
	gate := SHA256Gate{}

	t.Run("hash is a deterministic hex digest", func(t *testing.T) {
		// Known SHA-256 of "hunter2"
		assert.Equal(t,
			"f52fbd32b2b3b86ff88ef6c490628285f482af15ddcb29541f94bcf526a3f6c7",
			gate.Hash("hunter2"))
		assert.Equal(t, gate.Hash("hunter2"), gate.Hash("hunter2"))
	})

	t.Run("verify accepts the matching plaintext", func(t *testing.T) {
		stored := gate.Hash("hunter2")
		assert.True(t, gate.Verify("hunter2", stored))
	})

	t.Run("verify rejects a different plaintext", func(t *testing.T) {
		stored := gate.Hash("hunter2")
		assert.False(t, gate.Verify("hunter3", stored))
		assert.False(t, gate.Verify("", stored))
		assert.False(t, gate.Verify("Hunter2", stored))
	})

	t.Run("verify rejects a malformed stored hash", func(t *testing.T) {
		assert.False(t, gate.Verify("hunter2", "not-a-digest"))
	})
}
