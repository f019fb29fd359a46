package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jichangyoon/samu-rewards/logging"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenSQL opens a gorm connection for the "postgres" or "sqlite" driver and
// migrates the schema. Unique indexes on votes (meme_id, voter_wallet) and
// distributions (order_id) back the insert-if-absent guarantees.
func OpenSQL(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Contest{}, &Meme{}, &Vote{}, &Distribution{})
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

type SQLContestStorage struct {
	DB *gorm.DB
}

func (s *SQLContestStorage) Get(ctx context.Context, id string) (*Contest, error) {
	var contest Contest
	if err := s.DB.WithContext(ctx).First(&contest, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		logging.Log.Errorf("CONTEST: select %s failed: %v", id, err)
		return nil, err
	}
	return &contest, nil
}

func (s *SQLContestStorage) Create(ctx context.Context, contest *Contest) error {
	if err := s.DB.WithContext(ctx).Create(contest).Error; err != nil {
		if isDuplicateKey(err) {
			logging.Log.Warnf("CONTEST: item with ID %s already exists", contest.ID)
			return ErrItemWithIDAlreadyExists
		}
		logging.Log.Errorf("CONTEST: failed to create contest: %v", err)
		return err
	}
	return nil
}

func (s *SQLContestStorage) UpdateStatus(ctx context.Context, id string, from, to ContestStatus) error {
	res := s.DB.WithContext(ctx).Model(&Contest{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		logging.Log.Errorf("CONTEST: failed to update status for %s: %v", id, res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		logging.Log.Warnf("CONTEST: rejected status change %s -> %s for %s", from, to, id)
		return ErrInvalidStatusTransition
	}
	return nil
}

type SQLMemeStorage struct {
	DB *gorm.DB
}

func (s *SQLMemeStorage) Get(ctx context.Context, id string) (*Meme, error) {
	var meme Meme
	if err := s.DB.WithContext(ctx).First(&meme, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		logging.Log.Errorf("MEME: select %s failed: %v", id, err)
		return nil, err
	}
	return &meme, nil
}

func (s *SQLMemeStorage) Create(ctx context.Context, meme *Meme) error {
	if err := s.DB.WithContext(ctx).Create(meme).Error; err != nil {
		if isDuplicateKey(err) {
			logging.Log.Warnf("MEME: item with ID %s already exists", meme.ID)
			return ErrItemWithIDAlreadyExists
		}
		logging.Log.Errorf("MEME: failed to create meme: %v", err)
		return err
	}
	return nil
}

func (s *SQLMemeStorage) ListByContest(ctx context.Context, contestID string) ([]*Meme, error) {
	memes := make([]*Meme, 0)
	if err := s.DB.WithContext(ctx).Where("contest_id = ?", contestID).Order("id").Find(&memes).Error; err != nil {
		logging.Log.Errorf("MEME: list for contest %s failed: %v", contestID, err)
		return nil, err
	}
	return memes, nil
}

func (s *SQLMemeStorage) ArchiveByContest(ctx context.Context, contestID string) (int, error) {
	res := s.DB.WithContext(ctx).Model(&Meme{}).
		Where("contest_id = ? AND archived = ?", contestID, false).
		Update("archived", true)
	if res.Error != nil {
		logging.Log.Errorf("MEME: failed to archive memes for contest %s: %v", contestID, res.Error)
		return 0, res.Error
	}
	logging.Log.Infof("MEME: archived %d memes for contest %s", res.RowsAffected, contestID)
	return int(res.RowsAffected), nil
}

type SQLVoteStorage struct {
	DB *gorm.DB
}

func (s *SQLVoteStorage) Create(ctx context.Context, vote *Vote) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(vote).Error; err != nil {
			if isDuplicateKey(err) {
				logging.Log.Warnf("VOTE: duplicate vote by %s on meme %s", vote.VoterWallet, vote.MemeID)
				return ErrDuplicateVote
			}
			logging.Log.Errorf("VOTE: failed to create vote: %v", err)
			return err
		}

		res := tx.Model(&Meme{}).Where("id = ?", vote.MemeID).
			UpdateColumn("vote_count", gorm.Expr("vote_count + ?", 1))
		if res.Error != nil {
			logging.Log.Errorf("VOTE: failed to increment count for meme %s: %v", vote.MemeID, res.Error)
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *SQLVoteStorage) ListByContest(ctx context.Context, contestID string) ([]*Vote, error) {
	votes := make([]*Vote, 0)
	if err := s.DB.WithContext(ctx).Where("contest_id = ?", contestID).Order("created_at, id").Find(&votes).Error; err != nil {
		logging.Log.Errorf("VOTE: list for contest %s failed: %v", contestID, err)
		return nil, err
	}
	return votes, nil
}

func (s *SQLVoteStorage) ListByMeme(ctx context.Context, memeID string) ([]*Vote, error) {
	votes := make([]*Vote, 0)
	if err := s.DB.WithContext(ctx).Where("meme_id = ?", memeID).Order("created_at, id").Find(&votes).Error; err != nil {
		logging.Log.Errorf("VOTE: list for meme %s failed: %v", memeID, err)
		return nil, err
	}
	return votes, nil
}

type SQLDistributionStorage struct {
	DB *gorm.DB
}

func (s *SQLDistributionStorage) Create(ctx context.Context, d *Distribution) error {
	if err := s.DB.WithContext(ctx).Create(d).Error; err != nil {
		if isDuplicateKey(err) {
			logging.Log.Warnf("DISTRIBUTION: order %s already has a distribution", d.OrderID)
			return ErrDistributionExists
		}
		logging.Log.Errorf("DISTRIBUTION: failed to create distribution: %v", err)
		return err
	}
	return nil
}

func (s *SQLDistributionStorage) GetByOrder(ctx context.Context, orderID string) (*Distribution, error) {
	var d Distribution
	if err := s.DB.WithContext(ctx).First(&d, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		logging.Log.Errorf("DISTRIBUTION: select order %s failed: %v", orderID, err)
		return nil, err
	}
	return &d, nil
}

func (s *SQLDistributionStorage) ListByContest(ctx context.Context, contestID string) ([]*Distribution, error) {
	out := make([]*Distribution, 0)
	if err := s.DB.WithContext(ctx).Where("contest_id = ?", contestID).Order("created_at").Find(&out).Error; err != nil {
		logging.Log.Errorf("DISTRIBUTION: list for contest %s failed: %v", contestID, err)
		return nil, err
	}
	return out, nil
}

func (s *SQLDistributionStorage) ListByStatus(ctx context.Context, statuses ...DistributionStatus) ([]*Distribution, error) {
	out := make([]*Distribution, 0)
	if len(statuses) == 0 {
		return out, nil
	}
	if err := s.DB.WithContext(ctx).Where("status IN ?", statuses).Order("created_at").Find(&out).Error; err != nil {
		logging.Log.Errorf("DISTRIBUTION: list by status failed: %v", err)
		return nil, err
	}
	return out, nil
}

func (s *SQLDistributionStorage) UpdateStatus(ctx context.Context, orderID string, from []DistributionStatus, to DistributionStatus, reason string) error {
	if len(from) == 0 {
		return ErrInvalidStatusTransition
	}
	res := s.DB.WithContext(ctx).Model(&Distribution{}).
		Where("order_id = ? AND status IN ?", orderID, from).
		Updates(map[string]interface{}{
			"status":         to,
			"failure_reason": reason,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		logging.Log.Errorf("DISTRIBUTION: failed to update status for order %s: %v", orderID, res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetByOrder(ctx, orderID); err != nil {
			return err
		}
		logging.Log.Warnf("DISTRIBUTION: rejected status change to %s for order %s", to, orderID)
		return ErrInvalidStatusTransition
	}
	return nil
}
