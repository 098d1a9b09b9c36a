package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"jsr_backend/internal/config"
	"jsr_backend/internal/model"
	"jsr_backend/internal/repository"
	"jsr_backend/internal/util"
	"jsr_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VerifyOutcome 单个校验器对令牌的判定
type VerifyOutcome int

const (
	// NotApplicable 令牌不属于该校验器，交给下一个
	NotApplicable VerifyOutcome = iota
	Accept
	// Reject 令牌属于该校验器但不能通过，终止校验
	Reject
)

type VerifyResult struct {
	Outcome   VerifyOutcome
	Principal util.Authenticated
	Err       error
}

func accepted(p util.Authenticated) VerifyResult {
	return VerifyResult{Outcome: Accept, Principal: p}
}

func rejected(err error) VerifyResult {
	return VerifyResult{Outcome: Reject, Err: err}
}

// TokenVerifier 令牌校验策略
type TokenVerifier interface {
	Name() string
	Verify(ctx context.Context, token string) VerifyResult
}

// LocalVerifier 校验本服务签发的令牌
type LocalVerifier struct {
	Secret string
}

func (v *LocalVerifier) Name() string { return "local" }

func (v *LocalVerifier) Verify(ctx context.Context, token string) VerifyResult {
	claims, err := util.ParseJWT(token, v.Secret)
	if err != nil {
		return VerifyResult{Outcome: NotApplicable}
	}
	role := claims.Role
	if role != model.RoleAdmin {
		role = model.RoleUser
	}
	return accepted(util.Authenticated{ID: claims.UserID, Email: claims.Email, Role: role})
}

// SupabaseUserLookup 外部身份到本地用户的映射
type SupabaseUserLookup interface {
	FindBySupabaseID(ctx context.Context, supabaseID string) (*model.User, error)
}

// SupabaseVerifier 校验 Supabase 签发的访问令牌，并解析为已关联的本地用户
type SupabaseVerifier struct {
	Secret string
	Users  SupabaseUserLookup
}

func (v *SupabaseVerifier) Name() string { return "supabase" }

func (v *SupabaseVerifier) Verify(ctx context.Context, token string) VerifyResult {
	claims, err := util.ParseSupabaseJWT(token, v.Secret)
	if err != nil {
		return VerifyResult{Outcome: NotApplicable}
	}
	user, err := v.Users.FindBySupabaseID(ctx, claims.Subject)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rejected(util.ErrUnlinkedIdentity)
	}
	if err != nil {
		return rejected(err)
	}
	return accepted(util.Authenticated{ID: user.ID, Email: user.Email, Role: user.Role})
}

// AuthGate 按配置顺序依次尝试各校验器
type AuthGate struct {
	verifiers []TokenVerifier
}

func NewAuthGate(verifiers ...TokenVerifier) *AuthGate {
	return &AuthGate{verifiers: verifiers}
}

// BuildVerifiers 按 auth.verifiers 的顺序构造校验器
// 未配置 Supabase 密钥时跳过 supabase 校验器
func BuildVerifiers(cfg *config.Config, users *repository.UserRepository) ([]TokenVerifier, error) {
	var verifiers []TokenVerifier
	for _, name := range cfg.Auth.Verifiers {
		switch name {
		case "local":
			verifiers = append(verifiers, &LocalVerifier{Secret: cfg.JWT.Secret})
		case "supabase":
			if cfg.Auth.SupabaseSecret == "" {
				logger.Log.Warn("Supabase verifier configured without auth.supabase_jwt_secret, skipping")
				continue
			}
			verifiers = append(verifiers, &SupabaseVerifier{Secret: cfg.Auth.SupabaseSecret, Users: users})
		default:
			return nil, fmt.Errorf("unknown token verifier %q", name)
		}
	}
	if len(verifiers) == 0 {
		return nil, errors.New("no token verifier available")
	}
	return verifiers, nil
}

// VerifierNames 当前生效的校验顺序
func (g *AuthGate) VerifierNames() []string {
	names := make([]string, len(g.verifiers))
	for i, v := range g.verifiers {
		names[i] = v.Name()
	}
	return names
}

// Authenticate 空令牌返回 NOT_AUTHENTICATED；没有校验器接受时返回 INVALID_TOKEN
func (g *AuthGate) Authenticate(ctx context.Context, token string) (util.Authenticated, error) {
	if token == "" {
		return util.Authenticated{}, util.ErrNotAuthenticated
	}
	for _, v := range g.verifiers {
		res := v.Verify(ctx, token)
		switch res.Outcome {
		case Accept:
			return res.Principal, nil
		case Reject:
			logger.Log.Debug("Token rejected", zap.String("verifier", v.Name()), zap.Error(res.Err))
			return util.Authenticated{}, res.Err
		}
	}
	return util.Authenticated{}, util.ErrInvalidToken
}

// RestrictToAdmin 必须在 Authenticate 之后调用
func RestrictToAdmin(p util.Principal) error {
	switch v := p.(type) {
	case util.Authenticated:
		if v.IsAdmin() {
			return nil
		}
		return util.ErrNotAuthorized
	default:
		return util.ErrNotAuthenticated
	}
}

// ExtractBearer 从 Authorization 头中取出令牌
func ExtractBearer(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
