package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueProducesUniqueOpaqueTokens(t *testing.T) {
	svc := NewTokenService()

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		tok, err := svc.Issue()
		require.NoError(t, err)
		assert.Len(t, tok, TokenLength)

		_, dup := seen[tok]
		assert.False(t, dup, "token collision")
		seen[tok] = struct{}{}
	}
}

func TestValidate(t *testing.T) {
	svc := NewTokenService()

	tok, err := svc.Issue()
	require.NoError(t, err)

	other, err := svc.Issue()
	require.NoError(t, err)

	assert.True(t, svc.Validate(&tok, tok))
	assert.False(t, svc.Validate(&tok, other), "different token must not validate")
	assert.False(t, svc.Validate(nil, tok), "no stored token means nothing validates")
	assert.False(t, svc.Validate(&tok, ""), "empty presentation rejected")
	assert.False(t, svc.Validate(&tok, tok[:TokenLength-1]), "truncated token rejected")
}
