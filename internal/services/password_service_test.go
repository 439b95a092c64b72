package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordService_HashAndVerify(t *testing.T) {
	svc := NewPasswordService()

	hash, err := svc.HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$12$"), "hash must be bcrypt cost 12")

	assert.NoError(t, svc.VerifyPassword("correct horse battery", hash))
	assert.Error(t, svc.VerifyPassword("wrong password", hash))
}

func TestPasswordService_RejectsShortPasswords(t *testing.T) {
	svc := NewPasswordService()
	_, err := svc.HashPassword("short")
	assert.Error(t, err)
}

func TestPasswordService_HashesAreSalted(t *testing.T) {
	svc := NewPasswordService()
	a, err := svc.HashPassword("same password!")
	require.NoError(t, err)
	b, err := svc.HashPassword("same password!")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
