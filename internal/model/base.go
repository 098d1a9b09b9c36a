package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UUIDBase 所有实体的公共字段，主键为 UUID 字符串
// 不使用软删除：投票、收藏的唯一约束依赖物理删除
// swagger:model
type UUIDBase struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *UUIDBase) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return
}

func GenerateUUID() string {
	return uuid.New().String()
}

// IsUUID 判断字符串是否为合法的实体 ID
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// AllModels 迁移时需要建表的全部模型
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Admin{},
		&Category{},
		&ResourceType{},
		&Resource{},
		&Vote{},
		&Bookmark{},
		&Comment{},
	}
}
