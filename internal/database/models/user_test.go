package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openUserDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}))
	return db
}

func TestTokenMapColumnRoundTrip(t *testing.T) {
	db := openUserDB(t)

	user := &User{
		Email:          "tokens@example.com",
		PasswordDigest: "x",
		Tokens:         TokenMap{},
	}
	require.NoError(t, db.Create(user).Error)

	tokens := TokenMap{
		"client-1": {Digest: "d1", ExpiresAt: 1700000000, LastUsedAt: 1700000000},
		"client-2": {Digest: "d2", PreviousDigest: "d1", ExpiresAt: 1700000500, RotatedAt: 1700000100, LastUsedAt: 1700000100},
	}

	// Column-style update, the write path the token store uses
	require.NoError(t, db.Model(user).Update("tokens", tokens).Error)

	var stored User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	assert.Equal(t, tokens, stored.Tokens)

	// Clearing through a map of updates must round-trip too
	require.NoError(t, db.Model(user).Updates(map[string]interface{}{"tokens": TokenMap{}}).Error)
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	assert.Empty(t, stored.Tokens)
}

func TestTokenMapScan(t *testing.T) {
	var m TokenMap

	require.NoError(t, m.Scan(nil))
	assert.Empty(t, m)

	require.NoError(t, m.Scan(`{"c":{"digest":"d","expires_at":1,"last_used_at":1}}`))
	assert.Equal(t, "d", m["c"].Digest)

	require.NoError(t, m.Scan([]byte{}))
	assert.Empty(t, m)

	assert.Error(t, m.Scan(42))
}

func TestUserEmailUniqueness(t *testing.T) {
	db := openUserDB(t)

	first := &User{Email: "dup@example.com", PasswordDigest: "x", Tokens: TokenMap{}}
	require.NoError(t, db.Create(first).Error)

	second := &User{Email: "dup@example.com", PasswordDigest: "x", Tokens: TokenMap{}}
	err := db.Create(second).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}
