package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("secret", time.Hour)
	id := uuid.New()

	token, err := m.GenerateToken(id, "manager@inventory.com", "Warehouse Manager", "manager")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "manager", claims.Role)
	assert.Equal(t, "Warehouse Manager", claims.Name)
}

func TestManager_Rejects(t *testing.T) {
	m := NewManager("secret", time.Hour)
	token, err := m.GenerateToken(uuid.New(), "a@b.c", "A", "admin")
	require.NoError(t, err)

	_, err = NewManager("other", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewManager("secret", -time.Minute).GenerateToken(uuid.New(), "a@b.c", "A", "admin")
	require.NoError(t, err)
	_, err = m.ValidateToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ValidateToken("")
	assert.ErrorIs(t, err, ErrMissingToken)
}
