package model

import (
	"encoding/json"
	"strings"

	"gorm.io/gorm"
)

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

type ResourceStatus string

const (
	StatusPending  ResourceStatus = "pending"
	StatusApproved ResourceStatus = "approved"
	StatusRejected ResourceStatus = "rejected"
)

func (s ResourceStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

type PricingType string

const (
	PricingFree PricingType = "free"
	PricingPaid PricingType = "paid"
)

func (p PricingType) Valid() bool {
	return p == PricingFree || p == PricingPaid
}

// VoteAggregate 资源上的投票汇总，与投票记录保持一致
type VoteAggregate struct {
	Upvotes   int64 `gorm:"not null;default:0" json:"upvotes"`
	Downvotes int64 `gorm:"not null;default:0" json:"downvotes"`
}

// swagger:model Resource
type Resource struct {
	UUIDBase
	Name         string         `gorm:"size:100;not null" json:"name"`
	Description  string         `gorm:"size:2000;not null" json:"description"`
	URL          string         `gorm:"size:2048;not null" json:"url"`
	CategoryID   string         `gorm:"type:varchar(36);index;not null" json:"categoryId"`
	Category     *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	TypeID       string         `gorm:"type:varchar(36);index;not null" json:"typeId"`
	Type         *ResourceType  `gorm:"foreignKey:TypeID" json:"type,omitempty"`
	Difficulty   Difficulty     `gorm:"size:20;index;not null" json:"difficulty"`
	Tags         []string       `gorm:"serializer:json;type:text" json:"tags"`
	TagText      string         `gorm:"column:tag_text;type:text" json:"-"`
	Status       ResourceStatus `gorm:"size:20;index;default:pending;not null" json:"status"`
	CreatedBy    string         `gorm:"type:varchar(36);index;not null" json:"createdBy"`
	Creator      *User          `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	PricingType  PricingType    `gorm:"size:10;index;default:free;not null" json:"pricingType"`
	Price        *float64       `json:"price,omitempty"`
	ImageURL     string         `gorm:"size:2048" json:"imageUrl,omitempty"`
	ProviderIcon string         `gorm:"size:2048" json:"providerIcon,omitempty"`
	Votes        VoteAggregate  `gorm:"embedded" json:"votes"`
}

func (Resource) TableName() string {
	return "resources"
}

func (r *Resource) BeforeCreate(tx *gorm.DB) error {
	r.TagText = JoinTagText(r.Tags)
	return r.UUIDBase.BeforeCreate(tx)
}

// JoinTagText 检索用的标签文本：每个标签占一行且首尾带换行，LIKE 不会跨标签命中
func JoinTagText(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	lines := make([]string, len(tags))
	for i, t := range tags {
		lines[i] = strings.ToLower(strings.ReplaceAll(t, "\n", " "))
	}
	return "\n" + strings.Join(lines, "\n") + "\n"
}

// VoteCount 净票数
func (r Resource) VoteCount() int64 {
	return r.Votes.Upvotes - r.Votes.Downvotes
}

func (r Resource) MarshalJSON() ([]byte, error) {
	type alias Resource
	return json.Marshal(struct {
		alias
		VoteCount int64 `json:"voteCount"`
	}{alias(r), r.VoteCount()})
}

// swagger:model Category
type Category struct {
	UUIDBase
	Name        string `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Description string `gorm:"size:500" json:"description"`
	IconURL     string `gorm:"size:2048" json:"iconUrl,omitempty"`
}

func (Category) TableName() string {
	return "categories"
}

// swagger:model ResourceType
type ResourceType struct {
	UUIDBase
	Name        string `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Description string `gorm:"size:500" json:"description"`
}

func (ResourceType) TableName() string {
	return "resource_types"
}
