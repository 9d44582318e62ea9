// Package testutil wires an in-memory database, a fake Redis and signed
// session tokens for handler and service tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"nitpickr-api/config"
	"nitpickr-api/database"
	"nitpickr-api/internal/cache"
	"nitpickr-api/internal/domain/users"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const JWTSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// NewDB opens a fresh migrated in-memory database and installs it as
// database.DB.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	prev := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = prev
		_ = sqlDB.Close()
	})
	return db
}

// NewRedis starts a miniredis server and returns a store bound to it.
func NewRedis(t *testing.T) (*cache.Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return cache.New(rdb), mr
}

// CreateUser inserts a verified user.
func CreateUser(t *testing.T, db *gorm.DB, email string) users.User {
	t.Helper()

	now := time.Now()
	u := users.User{
		Name:          "Test " + email,
		Email:         email,
		AuthProvider:  users.ProviderLocal,
		Role:          users.RoleUser,
		EmailVerified: &now,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// Token signs a session token for userID and points the auth middleware at
// the test secret.
func Token(t *testing.T, userID, role string) string {
	t.Helper()

	config.JWT_SECRET = JWTSecret
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(JWTSecret))
	require.NoError(t, err)
	return s
}
