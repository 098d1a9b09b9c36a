// Package testutil 测试使用的数据库与数据构造工具
package testutil

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"jsr_backend/internal/config"
	"jsr_backend/internal/model"
	"jsr_backend/internal/util"
	"jsr_backend/pkg/database"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	JWTSecret      = "test-jwt-secret-0123456789abcdef"
	SupabaseSecret = "test-supabase-secret-0123456789ab"
)

var seq atomic.Int64

func next() int64 {
	return seq.Add(1)
}

// SetupTestDB 每个测试独立的 sqlite 文件库，已完成迁移
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// TestConfig 与默认配置一致，存储目录位于临时目录
func TestConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server:   config.ServerConfig{Port: "0", Mode: "test"},
		Database: config.DatabaseConfig{Driver: "sqlite"},
		JWT:      config.JWTConfig{Secret: JWTSecret, ExpireTime: time.Hour},
		Auth: config.AuthConfig{
			Verifiers:      []string{"local", "supabase"},
			SupabaseSecret: SupabaseSecret,
		},
		Storage: config.StorageConfig{Type: util.StorageLocal, LocalPath: t.TempDir(), MaxImageMB: 5},
		Resources: config.ResourcesConfig{
			DefaultLimit:      10,
			AdminDefaultLimit: 50,
			MaxLimit:          100,
			MaxBatchIDs:       50,
			MinTextSearchLen:  3,
			CommentMaxLength:  1000,
		},
		Preview:   config.PreviewConfig{TimeoutSeconds: 5, CacheTTLHours: 24},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"*"}},
		RateLimit: config.RateLimitConfig{MaxRequests: 10000, WindowMinutes: 1},
	}
}

func CreateUser(t *testing.T, db *gorm.DB, name string) *model.User {
	t.Helper()
	user := &model.User{
		Name:     name,
		Email:    name + "@example.com",
		Provider: model.ProviderEmail,
		Role:     model.RoleUser,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateLinkedUser 已关联 Supabase 身份的用户
func CreateLinkedUser(t *testing.T, db *gorm.DB, name, supabaseID string) *model.User {
	t.Helper()
	user := &model.User{
		Name:       name,
		Email:      name + "@example.com",
		SupabaseID: &supabaseID,
		Provider:   model.ProviderGithub,
		Role:       model.RoleUser,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func CreateAdmin(t *testing.T, db *gorm.DB, email, password string) *model.Admin {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	admin := &model.Admin{Name: "Admin", Email: email, Password: string(hashed)}
	require.NoError(t, db.Create(admin).Error)
	return admin
}

func CreateCategory(t *testing.T, db *gorm.DB, name string) *model.Category {
	t.Helper()
	category := &model.Category{Name: name, Description: name + " resources"}
	require.NoError(t, db.Create(category).Error)
	return category
}

func CreateType(t *testing.T, db *gorm.DB, name string) *model.ResourceType {
	t.Helper()
	rt := &model.ResourceType{Name: name, Description: name + " format"}
	require.NoError(t, db.Create(rt).Error)
	return rt
}

// CreateResource 默认已审核、免费、入门难度；未指定分类、类型、提交者时自动创建
func CreateResource(t *testing.T, db *gorm.DB, opts ...func(*model.Resource)) *model.Resource {
	t.Helper()
	n := next()
	resource := &model.Resource{
		Name:        "Resource",
		Description: "A JavaScript learning resource",
		URL:         "https://example.com/resource",
		Difficulty:  model.DifficultyBeginner,
		Tags:        []string{},
		Status:      model.StatusApproved,
		PricingType: model.PricingFree,
	}
	for _, opt := range opts {
		opt(resource)
	}
	if resource.CategoryID == "" {
		resource.CategoryID = CreateCategory(t, db, fmt.Sprintf("category-%d", n)).ID
	}
	if resource.TypeID == "" {
		resource.TypeID = CreateType(t, db, fmt.Sprintf("type-%d", n)).ID
	}
	if resource.CreatedBy == "" {
		resource.CreatedBy = CreateUser(t, db, fmt.Sprintf("creator-%d", n)).ID
	}
	require.NoError(t, db.Create(resource).Error)
	return resource
}

// Token 本服务签发的令牌
func Token(t *testing.T, p util.Authenticated) string {
	t.Helper()
	token, err := util.GenerateJWT(p, JWTSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func UserToken(t *testing.T, user *model.User) string {
	return Token(t, util.Authenticated{ID: user.ID, Email: user.Email, Role: model.RoleUser})
}

func AdminToken(t *testing.T, admin *model.Admin) string {
	return Token(t, util.Authenticated{ID: admin.ID, Email: admin.Email, Role: model.RoleAdmin})
}

// SupabaseToken 外部身份提供方签发的令牌，opts 可补充 metadata
func SupabaseToken(t *testing.T, subject, email string, opts ...func(*util.SupabaseClaims)) string {
	t.Helper()
	claims := util.SupabaseClaims{
		Email: email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Audience:  jwt.ClaimStrings{util.SupabaseAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	for _, opt := range opts {
		opt(&claims)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(SupabaseSecret))
	require.NoError(t, err)
	return token
}
