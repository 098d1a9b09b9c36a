package repository

import (
	"context"
	"errors"

	"jsr_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VoteRepository struct {
	DB *gorm.DB
}

func NewVoteRepository(db *gorm.DB) *VoteRepository {
	return &VoteRepository{DB: db}
}

// FindForUpdateTx 锁定 (资源, 用户) 的投票记录，不存在时返回 nil
// sqlite 不支持 FOR UPDATE，由数据库级写锁保证串行
func (r *VoteRepository) FindForUpdateTx(tx *gorm.DB, resourceID, userID string) (*model.Vote, error) {
	var vote model.Vote
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("resource_id = ? AND user_id = ?", resourceID, userID).
		First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

func (r *VoteRepository) CreateTx(tx *gorm.DB, vote *model.Vote) error {
	return tx.Create(vote).Error
}

func (r *VoteRepository) UpdateValueTx(tx *gorm.DB, vote *model.Vote, value model.VoteValue) error {
	return tx.Model(vote).Update("value", value).Error
}

func (r *VoteRepository) DeleteTx(tx *gorm.DB, vote *model.Vote) error {
	return tx.Delete(vote).Error
}

func (r *VoteRepository) FindOne(ctx context.Context, resourceID, userID string) (*model.Vote, error) {
	var vote model.Vote
	err := r.DB.WithContext(ctx).Where("resource_id = ? AND user_id = ?", resourceID, userID).First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

// FindByUserAndResources 单次查询用户在一组资源上的投票
func (r *VoteRepository) FindByUserAndResources(ctx context.Context, userID string, resourceIDs []string) ([]model.Vote, error) {
	var votes []model.Vote
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND resource_id IN ?", userID, resourceIDs).
		Find(&votes).Error
	return votes, err
}

// VoteTally 按投票记录统计出的票数
type VoteTally struct {
	ResourceID string
	Value      model.VoteValue
	Count      int64
}

// TallyAll 从投票记录重新统计每个资源的票数
func (r *VoteRepository) TallyAll(ctx context.Context) (map[string]model.VoteAggregate, error) {
	var rows []VoteTally
	err := r.DB.WithContext(ctx).Model(&model.Vote{}).
		Select("resource_id, value, COUNT(*) AS count").
		Group("resource_id, value").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	tallies := make(map[string]model.VoteAggregate)
	for _, row := range rows {
		agg := tallies[row.ResourceID]
		switch row.Value {
		case model.VoteUp:
			agg.Upvotes += row.Count
		case model.VoteDown:
			agg.Downvotes += row.Count
		}
		tallies[row.ResourceID] = agg
	}
	return tallies, nil
}
