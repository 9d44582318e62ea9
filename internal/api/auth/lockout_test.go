package auth

import (
	"testing"

	"nitpickr-api/config"
	"nitpickr-api/internal/domain/users"
	"nitpickr-api/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordFailedLoginCountsInDatabase(t *testing.T) {
	db := testutil.NewDB(t)
	prev := config.MAX_LOGIN_ATTEMPTS
	config.MAX_LOGIN_ATTEMPTS = 3
	t.Cleanup(func() { config.MAX_LOGIN_ATTEMPTS = prev })

	u := testutil.CreateUser(t, db, "ann@example.com")

	// Two requests that loaded the user before either failure was recorded.
	first, second := u, u
	assert.False(t, recordFailedLogin(db, &first))
	assert.False(t, recordFailedLogin(db, &second))
	assert.Equal(t, 2, second.InvalidLoginAttempts)

	stale := u
	assert.True(t, recordFailedLogin(db, &stale))

	var stored users.User
	require.NoError(t, db.First(&stored, "id = ?", u.ID).Error)
	assert.Equal(t, 3, stored.InvalidLoginAttempts)
	assert.True(t, stored.IsLocked())
}
