package aggregate

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// EngagementRow is the database form of a Record.
type EngagementRow struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID        string    `gorm:"type:varchar(36);not null;index" json:"run_id"`
	RecordedAt   time.Time `gorm:"not null;index" json:"recorded_at"`
	StudentCount int       `gorm:"not null" json:"student_count"`
	Engagement   float64   `gorm:"not null" json:"engagement"`
}

// TableName pins the table name regardless of gorm naming strategy.
func (EngagementRow) TableName() string { return "engagement_records" }

// RowFromRecord converts r for insertion under runID.
func RowFromRecord(runID string, r Record) EngagementRow {
	return EngagementRow{
		RunID:        runID,
		RecordedAt:   r.Timestamp,
		StudentCount: r.StudentCount,
		Engagement:   r.Engagement,
	}
}

// Record converts the row back to a Record.
func (r EngagementRow) Record() Record {
	return Record{Timestamp: r.RecordedAt, StudentCount: r.StudentCount, Engagement: r.Engagement}
}

// GormSink inserts one row per record.
type GormSink struct {
	mu     sync.Mutex
	db     *gorm.DB
	runID  string
	closed bool
}

// OpenPostgres connects to dsn, migrates the records table and returns a
// sink tagging rows with runID.
func OpenPostgres(dsn, runID string) (*GormSink, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("aggregate: connect postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("aggregate: get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return NewGormSink(db, runID)
}

// NewGormSink wraps an open gorm connection.
func NewGormSink(db *gorm.DB, runID string) (*GormSink, error) {
	if err := db.AutoMigrate(&EngagementRow{}); err != nil {
		return nil, fmt.Errorf("aggregate: migrate: %w", err)
	}
	return &GormSink{db: db, runID: runID}, nil
}

// Append inserts r.
func (s *GormSink) Append(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}
	row := RowFromRecord(s.runID, r)
	if err := s.db.Create(&row).Error; err != nil {
		return fmt.Errorf("aggregate: insert record: %w", err)
	}
	return nil
}

// Recent returns up to limit records of this run, newest first.
func (s *GormSink) Recent(limit int) ([]Record, error) {
	var rows []EngagementRow
	err := s.db.Where("run_id = ?", s.runID).
		Order("recorded_at desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate: query records: %w", err)
	}

	recs := make([]Record, len(rows))
	for i, row := range rows {
		recs[i] = row.Record()
	}
	return recs, nil
}

// Close closes the database connection.
func (s *GormSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
