package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteStore is the gorm-backed Store implementation. Rate-limit counters
// are read from the database on every call, so enforcement stays correct
// across restarts and across gateway instances sharing one file.
type SQLiteStore struct {
	db *gorm.DB
}

var _ Store = (*SQLiteStore)(nil)

// SQLiteConfig configures the sqlite store.
type SQLiteConfig struct {
	DatabasePath string
	Debug        bool
}

// NewSQLiteStore opens the database and migrates the schema.
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := db.AutoMigrate(
		&AgentRun{},
		&ToolCall{},
		&ApprovalRequest{},
		&Thread{},
		&ExecutionLog{},
		&Event{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) CreateApproval(ctx context.Context, approval *ApprovalRequest) error {
	return s.db.WithContext(ctx).Create(approval).Error
}

func (s *SQLiteStore) FindApproval(ctx context.Context, id string) (*ApprovalRequest, error) {
	var approval ApprovalRequest
	err := s.db.WithContext(ctx).First(&approval, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &approval, nil
}

func (s *SQLiteStore) UpdateApproval(ctx context.Context, approval *ApprovalRequest) error {
	return s.db.WithContext(ctx).Save(approval).Error
}

func (s *SQLiteStore) UpdateApprovalIf(ctx context.Context, id string, from ApprovalStatus, approval *ApprovalRequest) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&ApprovalRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":           approval.Status,
			"decided_by":       approval.DecidedBy,
			"decided_at":       approval.DecidedAt,
			"rejection_reason": approval.RejectionReason,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *SQLiteStore) PendingApprovalsByOperator(ctx context.Context, operatorID string) ([]ApprovalRequest, error) {
	var approvals []ApprovalRequest
	err := s.db.WithContext(ctx).
		Where("operator_id = ? AND status = ?", operatorID, ApprovalPending).
		Order("created_at ASC").
		Find(&approvals).Error
	return approvals, err
}

func (s *SQLiteStore) StaleApprovals(ctx context.Context, now time.Time) ([]ApprovalRequest, error) {
	var approvals []ApprovalRequest
	err := s.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", ApprovalPending, now).
		Find(&approvals).Error
	return approvals, err
}

func (s *SQLiteStore) CreateToolCall(ctx context.Context, call *ToolCall) error {
	return s.db.WithContext(ctx).Create(call).Error
}

func (s *SQLiteStore) FindToolCall(ctx context.Context, id string) (*ToolCall, error) {
	var call ToolCall
	err := s.db.WithContext(ctx).First(&call, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &call, nil
}

func (s *SQLiteStore) UpdateToolCall(ctx context.Context, call *ToolCall) error {
	return s.db.WithContext(ctx).Save(call).Error
}

func (s *SQLiteStore) CountToolCallsByRun(ctx context.Context, runID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&ToolCall{}).
		Where("run_id = ?", runID).
		Count(&count).Error
	return count, err
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run *AgentRun) error {
	return s.db.WithContext(ctx).Create(run).Error
}

func (s *SQLiteStore) FindRun(ctx context.Context, id string) (*AgentRun, error) {
	var run AgentRun
	err := s.db.WithContext(ctx).First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *SQLiteStore) UpdateRun(ctx context.Context, run *AgentRun) error {
	return s.db.WithContext(ctx).Save(run).Error
}

func (s *SQLiteStore) CountRecentRunsByOperator(ctx context.Context, operatorID string, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&AgentRun{}).
		Where("operator_id = ? AND created_at >= ?", operatorID, since).
		Count(&count).Error
	return count, err
}

func (s *SQLiteStore) CreateThread(ctx context.Context, thread *Thread) error {
	return s.db.WithContext(ctx).Create(thread).Error
}

func (s *SQLiteStore) FindThread(ctx context.Context, id string) (*Thread, error) {
	var thread Thread
	err := s.db.WithContext(ctx).First(&thread, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

func (s *SQLiteStore) CreateExecutionLog(ctx context.Context, entry *ExecutionLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *SQLiteStore) CreateEvent(ctx context.Context, event *Event) error {
	return s.db.WithContext(ctx).Create(event).Error
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
