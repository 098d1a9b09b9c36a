package model

type VoteValue string

const (
	VoteUp   VoteValue = "up"
	VoteDown VoteValue = "down"
	// VoteNone 仅作为请求值，表示撤销投票，不会持久化
	VoteNone VoteValue = "none"
)

func (v VoteValue) Valid() bool {
	return v == VoteUp || v == VoteDown || v == VoteNone
}

// Vote 每个 (资源, 用户) 最多一条
// swagger:model Vote
type Vote struct {
	UUIDBase
	ResourceID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_votes_resource_user" json:"resourceId"`
	UserID     string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_votes_resource_user;index" json:"userId"`
	Value      VoteValue `gorm:"size:10;not null" json:"value"`
}

func (Vote) TableName() string {
	return "votes"
}

// swagger:model Bookmark
type Bookmark struct {
	UUIDBase
	ResourceID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_bookmarks_resource_user" json:"resourceId"`
	Resource   *Resource `gorm:"foreignKey:ResourceID" json:"resource,omitempty"`
	UserID     string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_bookmarks_resource_user;index" json:"userId"`
}

func (Bookmark) TableName() string {
	return "bookmarks"
}

// swagger:model Comment
type Comment struct {
	UUIDBase
	ResourceID string `gorm:"type:varchar(36);not null;index" json:"resourceId"`
	UserID     string `gorm:"type:varchar(36);not null;index" json:"userId"`
	User       *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Content    string `gorm:"type:text;not null" json:"content"`
}

func (Comment) TableName() string {
	return "comments"
}
