package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCredentials(t *testing.T) {
	assert.NoError(t, ValidateCredentials("password123", "password123"))

	err := ValidateCredentials("short", "short")
	require.Error(t, err)

	err = ValidateCredentials("password123", "password124")
	require.Error(t, err)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "leo@example.com", NormalizeEmail("  Leo@Example.COM "))
}

func TestChangedPasswordAfter(t *testing.T) {
	issued := time.Now()

	t.Run("never changed", func(t *testing.T) {
		u := User{}
		assert.False(t, u.ChangedPasswordAfter(issued))
	})

	t.Run("changed before issue", func(t *testing.T) {
		before := issued.Add(-time.Hour)
		u := User{PasswordChangedAt: &before}
		assert.False(t, u.ChangedPasswordAfter(issued))
	})

	t.Run("changed after issue", func(t *testing.T) {
		after := issued.Add(time.Minute)
		u := User{PasswordChangedAt: &after}
		assert.True(t, u.ChangedPasswordAfter(issued))
	})
}

func TestValidRole(t *testing.T) {
	for _, r := range []string{RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin} {
		assert.True(t, ValidRole(r), r)
	}
	assert.False(t, ValidRole("superadmin"))
	assert.False(t, ValidRole(""))
}
