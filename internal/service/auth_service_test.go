package service

import (
	"context"
	"testing"

	"jsr_backend/internal/model"
	"jsr_backend/internal/repository"
	"jsr_backend/internal/testutil"
	"jsr_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAuthService(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewAuthService(repository.NewUserRepository(db), repository.NewAdminRepository(db), testutil.TestConfig(t)), db
}

func githubMetadata(name, providerID string) func(*util.SupabaseClaims) {
	return func(c *util.SupabaseClaims) {
		c.AppMetadata = map[string]interface{}{"provider": model.ProviderGithub}
		c.UserMetadata = map[string]interface{}{"full_name": name, "provider_id": providerID}
	}
}

func countUsers(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.User{}).Count(&n).Error)
	return n
}

func TestSyncSupabaseUser(t *testing.T) {
	svc, db := newAuthService(t)
	ctx := context.Background()

	existing := testutil.CreateUser(t, db, "linkme")
	moved := testutil.CreateLinkedUser(t, db, "moved", "sb-old")

	tests := []struct {
		name     string
		token    string
		req      SyncRequest
		err      error
		wantID   string
		check    func(t *testing.T, u *model.User)
		newUsers int64
	}{
		{
			name:     "first sync creates user",
			token:    testutil.SupabaseToken(t, "sb-new", "New.User@Example.com", githubMetadata("New User", "4242")),
			newUsers: 1,
			check: func(t *testing.T, u *model.User) {
				assert.Equal(t, "new.user@example.com", u.Email)
				assert.Equal(t, "New User", u.Name)
				assert.Equal(t, model.ProviderGithub, u.Provider)
				assert.Equal(t, model.RoleUser, u.Role)
				require.NotNil(t, u.GithubID)
				assert.Equal(t, "4242", *u.GithubID)
			},
		},
		{
			name:   "second sync finds the same user",
			token:  testutil.SupabaseToken(t, "sb-new", "new.user@example.com"),
			req:    SyncRequest{Name: "Renamed"},
			wantID: "", // 由第一条用例创建
			check: func(t *testing.T, u *model.User) {
				assert.Equal(t, "Renamed", u.Name)
			},
		},
		{
			name:   "links by email",
			token:  testutil.SupabaseToken(t, "sb-link", "LinkMe@example.com"),
			wantID: existing.ID,
			check: func(t *testing.T, u *model.User) {
				assert.Equal(t, "linkme", u.Name)
				assert.Equal(t, model.ProviderEmail, u.Provider)
			},
		},
		{
			name:   "relinks user to new identity",
			token:  testutil.SupabaseToken(t, "sb-moved", "moved@example.com"),
			wantID: moved.ID,
		},
		{
			name:  "missing email",
			token: testutil.SupabaseToken(t, "sb-anon", ""),
			err:   util.ErrMissingFields,
		},
		{
			name:  "invalid token",
			token: "not-a-jwt",
			err:   util.ErrInvalidToken,
		},
		{
			name:  "empty token",
			token: "",
			err:   util.ErrNotAuthenticated,
		},
	}

	var createdID string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := countUsers(t, db)
			result, err := svc.SyncSupabaseUser(ctx, tt.token, tt.req)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Equal(t, before, countUsers(t, db))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, before+tt.newUsers, countUsers(t, db))

			claims, err := util.ParseSupabaseJWT(tt.token, testutil.SupabaseSecret)
			require.NoError(t, err)
			stored, err := svc.UserRepo.FindBySupabaseID(ctx, claims.Subject)
			require.NoError(t, err)
			assert.Equal(t, result.User.ID, stored.ID)

			switch {
			case tt.newUsers == 1:
				createdID = result.User.ID
			case tt.wantID == "":
				assert.Equal(t, createdID, result.User.ID)
			default:
				assert.Equal(t, tt.wantID, result.User.ID)
			}

			local, err := util.ParseJWT(result.Token, testutil.JWTSecret)
			require.NoError(t, err)
			assert.Equal(t, result.User.ID, local.UserID)
			assert.Equal(t, model.RoleUser, local.Role)

			if tt.check != nil {
				tt.check(t, stored)
			}
		})
	}

	// 重新关联后旧身份不再对应任何用户
	_, err := svc.VerifySupabaseToken(ctx, testutil.SupabaseToken(t, "sb-old", "moved@example.com"))
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}

func TestVerifySupabaseToken(t *testing.T) {
	svc, db := newAuthService(t)
	ctx := context.Background()
	linked := testutil.CreateLinkedUser(t, db, "linked", "sb-linked")

	tests := []struct {
		name  string
		token string
		want  string
		err   error
	}{
		{"linked identity", testutil.SupabaseToken(t, "sb-linked", "linked@example.com"), linked.ID, nil},
		{"unlinked identity", testutil.SupabaseToken(t, "sb-unknown", "unknown@example.com"), "", util.ErrUserNotFound},
		{"local token", testutil.UserToken(t, linked), "", util.ErrInvalidToken},
		{"garbage", "garbage", "", util.ErrInvalidToken},
		{"empty", "", "", util.ErrNotAuthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.VerifySupabaseToken(ctx, tt.token)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, user.ID)
		})
	}

	svc.Cfg.Auth.SupabaseSecret = ""
	_, err := svc.VerifySupabaseToken(ctx, testutil.SupabaseToken(t, "sb-linked", "linked@example.com"))
	assert.ErrorIs(t, err, util.ErrInvalidToken)
}
