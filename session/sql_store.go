package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BaSui01/warmtransfer/types"
	"gorm.io/gorm"
)

// transferRecord is the row layout of the transfer_sessions table.
// Status, version and timestamps are columns so they can be filtered in SQL;
// the full session travels in Payload.
type transferRecord struct {
	ID          string     `gorm:"primaryKey;size:128"`
	Status      string     `gorm:"size:32;index"`
	Version     int64      `gorm:"not null"`
	Payload     string     `gorm:"type:text;not null"`
	CreatedAt   time.Time  `gorm:"not null"`
	CompletedAt *time.Time `gorm:"index"`
}

func (transferRecord) TableName() string { return "transfer_sessions" }

// SQLStore keeps sessions in a relational database through gorm.
// CompareAndSwap is a single UPDATE guarded by the version column.
type SQLStore struct {
	db *gorm.DB
}

// NewSQLStore creates a store on db. When autoMigrate is set the table is
// created or updated by gorm; otherwise it must exist already (see the
// migrate command).
func NewSQLStore(db *gorm.DB, autoMigrate bool) (*SQLStore, error) {
	if autoMigrate {
		if err := db.AutoMigrate(&transferRecord{}); err != nil {
			return nil, fmt.Errorf("auto-migrate transfer_sessions: %w", err)
		}
	}
	return &SQLStore{db: db}, nil
}

func toRecord(s *types.TransferSession) (*transferRecord, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	return &transferRecord{
		ID:          s.ID,
		Status:      string(s.Status),
		Version:     s.Version,
		Payload:     string(data),
		CreatedAt:   s.CreatedAt,
		CompletedAt: s.CompletedAt,
	}, nil
}

func (r *transferRecord) session() (*types.TransferSession, error) {
	s, err := decodeSession([]byte(r.Payload))
	if err != nil {
		return nil, err
	}
	s.Version = r.Version
	return s, nil
}

func (q *SQLStore) Create(ctx context.Context, s *types.TransferSession) error {
	cp := s.Clone()
	if cp.Version == 0 {
		cp.Version = 1
	}
	rec, err := toRecord(cp)
	if err != nil {
		return err
	}

	var count int64
	if err := q.db.WithContext(ctx).Model(&transferRecord{}).Where("id = ?", s.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if count > 0 {
		return ErrExists
	}
	if err := q.db.WithContext(ctx).Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrExists
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (q *SQLStore) Get(ctx context.Context, id string) (*types.TransferSession, error) {
	var rec transferRecord
	err := q.db.WithContext(ctx).Where("id = ?", id).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NewNotFoundError("transfer session", id)
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}
	return rec.session()
}

func (q *SQLStore) CompareAndSwap(ctx context.Context, id string, expected int64, next *types.TransferSession) error {
	cp := next.Clone()
	cp.ID = id
	cp.Version = expected + 1
	rec, err := toRecord(cp)
	if err != nil {
		return err
	}

	res := q.db.WithContext(ctx).Model(&transferRecord{}).
		Where("id = ? AND version = ?", id, expected).
		Updates(map[string]any{
			"status":       rec.Status,
			"version":      rec.Version,
			"payload":      rec.Payload,
			"completed_at": rec.CompletedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("update session: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := q.db.WithContext(ctx).Model(&transferRecord{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if count == 0 {
		return types.NewNotFoundError("transfer session", id)
	}
	return ErrConflict
}

func (q *SQLStore) List(ctx context.Context) ([]*types.TransferSession, error) {
	var recs []transferRecord
	if err := q.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	out := make([]*types.TransferSession, 0, len(recs))
	for i := range recs {
		s, err := recs[i].session()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (q *SQLStore) Delete(ctx context.Context, id string) error {
	if err := q.db.WithContext(ctx).Where("id = ?", id).Delete(&transferRecord{}).Error; err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteCompletedBefore implements CompletedSweeper.
func (q *SQLStore) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res := q.db.WithContext(ctx).
		Where("status = ? AND completed_at IS NOT NULL AND completed_at < ?", string(types.TransferCompleted), cutoff).
		Delete(&transferRecord{})
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}
