package db

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/config"
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"

	PermissionRead = "read"
)

type (
	GormForkedModel struct {
		ID        uint64 `gorm:"primarykey"`
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	User struct {
		GormForkedModel
		GoogleID string `gorm:"unique;not null"`
		Email    string `gorm:"unique;not null"`
		Name     *string
	}

	Subject struct {
		GormForkedModel
		Name        string `gorm:"not null"`
		Professor   *string
		Description *string `gorm:"type:text"`
		UserID      uint64  `gorm:"not null;index"`
	}

	Note struct {
		GormForkedModel
		Title         string  `gorm:"not null"`
		Content       *string `gorm:"type:text"`
		AttachmentURL *string
		Tags          *string
		SubjectID     uint64 `gorm:"not null;index"`
	}

	Group struct {
		GormForkedModel
		Name        string `gorm:"not null"`
		Description *string
		Code        string `gorm:"unique;not null"`
	}

	GroupMember struct {
		GormForkedModel
		UserID  uint64 `gorm:"not null;uniqueIndex:uidx_user_id_group_id"`
		GroupID uint64 `gorm:"not null;uniqueIndex:uidx_user_id_group_id;index"`
		Role    string `gorm:"not null;default:'member'"`
	}

	SharedNote struct {
		GormForkedModel
		NoteID     uint64 `gorm:"not null;uniqueIndex:uidx_note_id_group_id;index"`
		GroupID    uint64 `gorm:"not null;uniqueIndex:uidx_note_id_group_id"`
		Permission string `gorm:"not null;default:'read'"`
	}
)

// TableName avoids the GROUPS keyword in raw queries.
func (Group) TableName() string {
	return "study_groups"
}

func NewGormClient(cfg *config.Config, l *zap.SugaredLogger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DBDriverSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		dialector = postgres.Open(cfg.PostgresDSN())
	}

	return Open(dialector, l)
}

// Open connects with the given dialector and migrates the schema.
func Open(dialector gorm.Dialector, l *zap.SugaredLogger) (*gorm.DB, error) {
	newLogger := logger.New(zapWriter{l: l}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}); err != nil {
		return errors.Wrap(err, "migrate user")
	}
	if err := db.AutoMigrate(&Subject{}); err != nil {
		return errors.Wrap(err, "migrate subject")
	}
	if err := db.AutoMigrate(&Note{}); err != nil {
		return errors.Wrap(err, "migrate note")
	}
	if err := db.AutoMigrate(&Group{}); err != nil {
		return errors.Wrap(err, "migrate group")
	}
	if err := db.AutoMigrate(&GroupMember{}); err != nil {
		return errors.Wrap(err, "migrate group member")
	}
	if err := db.AutoMigrate(&SharedNote{}); err != nil {
		return errors.Wrap(err, "migrate shared note")
	}
	return nil
}

type zapWriter struct {
	l *zap.SugaredLogger
}

func (w zapWriter) Printf(format string, args ...interface{}) {
	w.l.Warnf(format, args...)
}
