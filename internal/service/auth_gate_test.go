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
)

func newTestGate(t *testing.T, verifiers ...string) (*AuthGate, *repository.UserRepository) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	cfg := testutil.TestConfig(t)
	if len(verifiers) > 0 {
		cfg.Auth.Verifiers = verifiers
	}
	users := repository.NewUserRepository(db)
	built, err := BuildVerifiers(cfg, users)
	require.NoError(t, err)
	return NewAuthGate(built...), users
}

func TestAuthenticate(t *testing.T) {
	gate, users := newTestGate(t)
	ctx := context.Background()

	linked := &model.User{Name: "linked", Email: "linked@example.com", Provider: model.ProviderGithub, Role: model.RoleUser}
	sid := "supabase-linked"
	linked.SupabaseID = &sid
	require.NoError(t, users.Create(ctx, linked))

	local := testutil.Token(t, util.Authenticated{ID: "admin-1", Email: "admin@example.com", Role: model.RoleAdmin})

	tests := []struct {
		name  string
		token string
		want  util.Authenticated
		err   error
	}{
		{"local admin token", local, util.Authenticated{ID: "admin-1", Email: "admin@example.com", Role: model.RoleAdmin}, nil},
		{"linked supabase token", testutil.SupabaseToken(t, sid, "linked@example.com"), util.Authenticated{ID: linked.ID, Email: linked.Email, Role: model.RoleUser}, nil},
		{"unlinked supabase token", testutil.SupabaseToken(t, "nobody", "nobody@example.com"), util.Authenticated{}, util.ErrUnlinkedIdentity},
		{"garbage", "not-a-jwt", util.Authenticated{}, util.ErrInvalidToken},
		{"empty", "", util.Authenticated{}, util.ErrNotAuthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gate.Authenticate(ctx, tt.token)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := gate.Authenticate(ctx, testutil.SupabaseToken(t, "nobody", "nobody@example.com"))
	appErr, ok := util.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 401, appErr.Status)
	assert.Equal(t, "USER_NOT_FOUND", appErr.Code)
}

func TestAuthenticate_VerifierOrder(t *testing.T) {
	gate, _ := newTestGate(t, "supabase")
	assert.Equal(t, []string{"supabase"}, gate.VerifierNames())

	// 只启用 supabase 时本地令牌不被接受
	local := testutil.Token(t, util.Authenticated{ID: "u1", Email: "u1@example.com", Role: model.RoleUser})
	_, err := gate.Authenticate(context.Background(), local)
	assert.ErrorIs(t, err, util.ErrInvalidToken)

	gate, _ = newTestGate(t, "supabase", "local")
	assert.Equal(t, []string{"supabase", "local"}, gate.VerifierNames())
	got, err := gate.Authenticate(context.Background(), local)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
}

func TestBuildVerifiers(t *testing.T) {
	cfg := testutil.TestConfig(t)
	cfg.Auth.Verifiers = []string{"local", "oauth"}
	_, err := BuildVerifiers(cfg, nil)
	assert.Error(t, err)

	cfg.Auth.Verifiers = []string{"supabase"}
	cfg.Auth.SupabaseSecret = ""
	_, err = BuildVerifiers(cfg, nil)
	assert.Error(t, err)

	cfg.Auth.Verifiers = []string{"local", "supabase"}
	verifiers, err := BuildVerifiers(cfg, nil)
	require.NoError(t, err)
	assert.Len(t, verifiers, 1)
}

func TestRestrictToAdmin(t *testing.T) {
	assert.NoError(t, RestrictToAdmin(util.Authenticated{ID: "a", Role: model.RoleAdmin}))
	assert.ErrorIs(t, RestrictToAdmin(util.Authenticated{ID: "u", Role: model.RoleUser}), util.ErrNotAuthorized)
	assert.ErrorIs(t, RestrictToAdmin(util.Anonymous{}), util.ErrNotAuthenticated)
}

func TestExtractBearer(t *testing.T) {
	assert.Equal(t, "abc", ExtractBearer("Bearer abc"))
	assert.Equal(t, "abc", ExtractBearer("bearer  abc "))
	assert.Empty(t, ExtractBearer("Basic abc"))
	assert.Empty(t, ExtractBearer("abc"))
	assert.Empty(t, ExtractBearer(""))
}
