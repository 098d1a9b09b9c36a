package repository

import (
	"context"
	"time"

	"jsr_backend/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user).Error
	return &user, err
}

// FindBySupabaseID 外部身份 ID 到内部用户的映射
func (r *UserRepository) FindBySupabaseID(ctx context.Context, supabaseID string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("supabase_id = ?", supabaseID).First(&user).Error
	return &user, err
}

func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Save(user).Error
}

// TouchLastSeen 更新最后活跃时间
func (r *UserRepository) TouchLastSeen(ctx context.Context, id string, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		UpdateColumn("last_seen", at).
		Error
}

type AdminRepository struct {
	DB *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{DB: db}
}

func (r *AdminRepository) Create(ctx context.Context, admin *model.Admin) error {
	return r.DB.WithContext(ctx).Create(admin).Error
}

func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var admin model.Admin
	err := r.DB.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&admin).Error
	return &admin, err
}

func (r *AdminRepository) FindByID(ctx context.Context, id string) (*model.Admin, error) {
	var admin model.Admin
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&admin).Error
	return &admin, err
}
