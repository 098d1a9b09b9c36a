package service

import (
	"context"
	"errors"
	"strings"

	"jsr_backend/internal/config"
	"jsr_backend/internal/model"
	"jsr_backend/internal/repository"
	"jsr_backend/internal/util"
	"jsr_backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minAdminPasswordLength = 8

type AuthService struct {
	UserRepo  *repository.UserRepository
	AdminRepo *repository.AdminRepository
	Cfg       *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, adminRepo *repository.AdminRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo:  userRepo,
		AdminRepo: adminRepo,
		Cfg:       cfg,
	}
}

// AdminLoginResult 管理员登录结果
type AdminLoginResult struct {
	Token string       `json:"token"`
	Admin *model.Admin `json:"admin"`
}

func (s *AuthService) AdminLogin(ctx context.Context, email, password string) (*AdminLoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, util.ErrMissingFields
	}

	admin, err := s.AdminRepo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(util.Authenticated{ID: admin.ID, Email: admin.Email, Role: model.RoleAdmin}, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}
	return &AdminLoginResult{Token: token, Admin: admin}, nil
}

// CreateAdmin 命令行与初始化数据使用
func (s *AuthService) CreateAdmin(ctx context.Context, name, email, password string) (*model.Admin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if name == "" || email == "" || password == "" {
		return nil, util.ErrMissingFields
	}
	if len(password) < minAdminPasswordLength {
		return nil, util.BadRequestError("WEAK_PASSWORD", "Password must be at least 8 characters")
	}

	_, err := s.AdminRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	admin := &model.Admin{Name: name, Email: email, Password: string(hashedPassword)}
	if err := s.AdminRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrEmailRegistered
		}
		return nil, err
	}
	return admin, nil
}

// SyncRequest 客户端登录后可选上报的资料
type SyncRequest struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
	Provider  string `json:"provider"`
}

type SyncResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (s *AuthService) parseSupabase(token string) (*util.SupabaseClaims, error) {
	if token == "" {
		return nil, util.ErrNotAuthenticated
	}
	if s.Cfg.Auth.SupabaseSecret == "" {
		return nil, util.ErrInvalidToken
	}
	claims, err := util.ParseSupabaseJWT(token, s.Cfg.Auth.SupabaseSecret)
	if err != nil {
		return nil, util.ErrInvalidToken
	}
	return claims, nil
}

// SyncSupabaseUser 按外部身份 ID 查找本地用户，找不到则按邮箱关联，仍找不到则创建
func (s *AuthService) SyncSupabaseUser(ctx context.Context, token string, req SyncRequest) (*SyncResult, error) {
	claims, err := s.parseSupabase(token)
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(claims.Email))

	user, err := s.UserRepo.FindBySupabaseID(ctx, claims.Subject)
	if errors.Is(err, gorm.ErrRecordNotFound) && email != "" {
		user, err = s.UserRepo.FindByEmail(ctx, email)
	}

	created := false
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if email == "" {
			return nil, util.ErrMissingFields
		}
		user = &model.User{Email: email, Role: model.RoleUser}
		created = true
	case err != nil:
		return nil, err
	}

	subject := claims.Subject
	user.SupabaseID = &subject
	user.Provider = firstNonEmpty(req.Provider, claims.Provider(), user.Provider, model.ProviderEmail)
	user.Name = firstNonEmpty(req.Name, user.Name, claims.MetadataString("full_name", "name", "user_name"), strings.Split(email, "@")[0])
	user.AvatarURL = firstNonEmpty(req.AvatarURL, user.AvatarURL, claims.MetadataString("avatar_url", "picture"))
	if user.Provider == model.ProviderGithub && user.GithubID == nil {
		if gid := claims.MetadataString("provider_id", "sub"); gid != "" {
			user.GithubID = &gid
		}
	}

	if created {
		err = s.UserRepo.Create(ctx, user)
	} else {
		err = s.UserRepo.Update(ctx, user)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrEmailRegistered
		}
		return nil, err
	}
	if created {
		logger.Log.Info("User created from identity provider", zap.String("userId", user.ID), zap.String("provider", user.Provider))
	}

	local, err := util.GenerateJWT(util.Authenticated{ID: user.ID, Email: user.Email, Role: user.Role}, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}
	return &SyncResult{User: user, Token: local}, nil
}

// VerifySupabaseToken 返回令牌关联的本地用户
func (s *AuthService) VerifySupabaseToken(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.parseSupabase(token)
	if err != nil {
		return nil, err
	}
	user, err := s.UserRepo.FindBySupabaseID(ctx, claims.Subject)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	return user, err
}

// Me 当前主体的资料；管理员与普通用户分表存储
func (s *AuthService) Me(ctx context.Context, p util.Authenticated) (interface{}, error) {
	if p.IsAdmin() {
		admin, err := s.AdminRepo.FindByID(ctx, p.ID)
		if err == nil {
			return admin, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	user, err := s.UserRepo.FindByID(ctx, p.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	return user, err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
