package service

import (
	"context"
	"errors"
	"sort"

	"jsr_backend/internal/model"
	"jsr_backend/internal/repository"
	"jsr_backend/internal/util"
	"jsr_backend/pkg/logger"
	"jsr_backend/pkg/monitoring"
	"jsr_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VoteTransition 一次投票请求对投票记录产生的变化
type VoteTransition string

const (
	TransitionCreated   VoteTransition = "created"
	TransitionFlipped   VoteTransition = "flipped"
	TransitionRemoved   VoteTransition = "removed"
	TransitionUnchanged VoteTransition = "unchanged"
)

// VotePlan 由当前记录和请求值推导出的转换及票数增量
type VotePlan struct {
	Transition VoteTransition
	UpDelta    int64
	DownDelta  int64
}

func delta(v model.VoteValue, sign int64) (up, down int64) {
	if v == model.VoteUp {
		return sign, 0
	}
	return 0, sign
}

// PlanVote 纯函数：existing 为 nil 表示尚未投票
func PlanVote(existing *model.Vote, value model.VoteValue) (VotePlan, error) {
	if !value.Valid() {
		return VotePlan{}, util.ErrInvalidVoteType
	}

	if value == model.VoteNone {
		if existing == nil {
			return VotePlan{}, util.ErrNoVoteToRemove
		}
		up, down := delta(existing.Value, -1)
		return VotePlan{Transition: TransitionRemoved, UpDelta: up, DownDelta: down}, nil
	}

	if existing == nil {
		up, down := delta(value, 1)
		return VotePlan{Transition: TransitionCreated, UpDelta: up, DownDelta: down}, nil
	}

	if existing.Value == value {
		return VotePlan{Transition: TransitionUnchanged}, nil
	}

	oldUp, oldDown := delta(existing.Value, -1)
	newUp, newDown := delta(value, 1)
	return VotePlan{Transition: TransitionFlipped, UpDelta: oldUp + newUp, DownDelta: oldDown + newDown}, nil
}

// VoteResult 投票后的用户状态与资源票数
type VoteResult struct {
	UserVote   *model.VoteValue    `json:"userVote"`
	Votes      model.VoteAggregate `json:"votes"`
	Transition VoteTransition      `json:"-"`
}

type VoteService struct {
	VoteRepo     *repository.VoteRepository
	ResourceRepo *repository.ResourceRepository
}

func NewVoteService(voteRepo *repository.VoteRepository, resourceRepo *repository.ResourceRepository) *VoteService {
	return &VoteService{VoteRepo: voteRepo, ResourceRepo: resourceRepo}
}

// ApplyVote 在单个事务中更新投票记录与资源票数
// 重复相同的投票不改变任何状态；并发的首次投票由唯一索引兜底，返回 VOTE_CONFLICT
func (s *VoteService) ApplyVote(ctx context.Context, resourceID, userID string, value model.VoteValue) (_ *VoteResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "VoteService.ApplyVote",
		attribute.String("resource.id", resourceID),
		attribute.String("vote.value", string(value)),
	)
	defer func() { tracing.EndSpan(span, err) }()

	if !value.Valid() {
		return nil, util.ErrInvalidVoteType
	}

	result := &VoteResult{}
	err = s.VoteRepo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.ResourceRepo.ExistsTx(tx, resourceID)
		if err != nil {
			return err
		}
		if !exists {
			return util.ErrResourceNotFound
		}

		existing, err := s.VoteRepo.FindForUpdateTx(tx, resourceID, userID)
		if err != nil {
			return err
		}

		plan, err := PlanVote(existing, value)
		if err != nil {
			return err
		}
		result.Transition = plan.Transition

		switch plan.Transition {
		case TransitionCreated:
			err = s.VoteRepo.CreateTx(tx, &model.Vote{ResourceID: resourceID, UserID: userID, Value: value})
		case TransitionFlipped:
			err = s.VoteRepo.UpdateValueTx(tx, existing, value)
		case TransitionRemoved:
			err = s.VoteRepo.DeleteTx(tx, existing)
		}
		if err != nil {
			return err
		}

		if err := s.ResourceRepo.AdjustVotes(tx, resourceID, plan.UpDelta, plan.DownDelta); err != nil {
			return err
		}

		result.Votes, err = s.ResourceRepo.LoadAggregateTx(tx, resourceID)
		return err
	})

	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			monitoring.VoteConflicts.Inc()
			logger.Log.Warn("Concurrent first vote rejected",
				zap.String("resourceId", resourceID),
				zap.String("userId", userID),
			)
			return nil, util.ErrVoteConflict
		}
		return nil, err
	}

	if value != model.VoteNone {
		v := value
		result.UserVote = &v
	}
	monitoring.VoteTransitions.WithLabelValues(string(result.Transition)).Inc()
	return result, nil
}

// GetUserVote 用户在单个资源上的投票与资源票数，未投票时 UserVote 为 nil
func (s *VoteService) GetUserVote(ctx context.Context, resourceID, userID string) (*VoteResult, error) {
	resource, err := s.ResourceRepo.FindByID(ctx, resourceID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrResourceNotFound
	}
	if err != nil {
		return nil, err
	}
	vote, err := s.VoteRepo.FindOne(ctx, resourceID, userID)
	if err != nil {
		return nil, err
	}

	result := &VoteResult{Votes: resource.Votes}
	if vote != nil {
		value := vote.Value
		result.UserVote = &value
	}
	return result, nil
}

// TallyDrift 资源票数与投票记录统计不一致的情况
type TallyDrift struct {
	ResourceID string              `json:"resourceId"`
	Stored     model.VoteAggregate `json:"stored"`
	Counted    model.VoteAggregate `json:"counted"`
}

// VerifyTallies 对比每个资源的票数与投票记录；repair 为 true 时以投票记录为准修正
func (s *VoteService) VerifyTallies(ctx context.Context, repair bool) ([]TallyDrift, error) {
	resources, err := s.ResourceRepo.AllAggregates(ctx)
	if err != nil {
		return nil, err
	}
	counted, err := s.VoteRepo.TallyAll(ctx)
	if err != nil {
		return nil, err
	}

	var drifts []TallyDrift
	for _, r := range resources {
		c := counted[r.ID]
		if c != r.Votes {
			drifts = append(drifts, TallyDrift{ResourceID: r.ID, Stored: r.Votes, Counted: c})
		}
	}
	sort.Slice(drifts, func(i, j int) bool { return drifts[i].ResourceID < drifts[j].ResourceID })

	if repair {
		for _, d := range drifts {
			if err := s.ResourceRepo.SetAggregate(ctx, d.ResourceID, d.Counted); err != nil {
				return drifts, err
			}
			logger.Log.Info("Vote tally repaired",
				zap.String("resourceId", d.ResourceID),
				zap.Int64("upvotes", d.Counted.Upvotes),
				zap.Int64("downvotes", d.Counted.Downvotes),
			)
		}
	}
	return drifts, nil
}
