package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bizhub-api/pkg/jwt"
)

func TestGenerateParse_IdaYVuelta(t *testing.T) {
	token, err := jwt.Generate("secreto", "u-1", "ana@x.co", "Ana", "bizhub-api", 5)
	require.NoError(t, err)

	claims, err := jwt.Parse("secreto", token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "ana@x.co", claims.Email)
	assert.Equal(t, "Ana", claims.Name)
}

func TestParse_FirmaIncorrectaYExpirado(t *testing.T) {
	token, err := jwt.Generate("secreto", "u-1", "ana@x.co", "", "bizhub-api", 5)
	require.NoError(t, err)
	_, err = jwt.Parse("otro-secreto", token)
	assert.Error(t, err)

	expired, err := jwt.Generate("secreto", "u-1", "ana@x.co", "", "bizhub-api", -1)
	require.NoError(t, err)
	_, err = jwt.Parse("secreto", expired)
	assert.Error(t, err)

	_, err = jwt.Generate("", "u-1", "", "", "", 5)
	assert.Error(t, err)
}
