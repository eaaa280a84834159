package taskauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
)

func TestSignAndVerify(t *testing.T) {
	a := NewAdapter("test-secret")

	token, err := a.Sign(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.NoError(t, a.Verify(token))
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := NewAdapter("secret-one").Sign(42)
	require.NoError(t, err)

	err = NewAdapter("secret-two").Verify(token)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestVerify_Garbage(t *testing.T) {
	a := NewAdapter("test-secret")

	assert.ErrorIs(t, a.Verify("not-a-token"), domain.ErrForbidden)
	assert.ErrorIs(t, a.Verify(""), domain.ErrForbidden)
}

func TestVerify_Expired(t *testing.T) {
	a := NewAdapter("test-secret")
	a.ttl = -1

	token, err := a.Sign(42)
	require.NoError(t, err)

	assert.ErrorIs(t, a.Verify(token), domain.ErrForbidden)
}
