package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/auth"
	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/blob"
	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/db"
)

// ErrNotFound covers both a missing row and a row the caller has no
// relationship with.
var ErrNotFound = errors.New("not found")

type General struct {
	db     *gorm.DB
	blobs  blob.Store
	logger *zap.SugaredLogger
}

func NewGeneral(gdb *gorm.DB, blobs blob.Store, l *zap.SugaredLogger) *General {
	return &General{
		db:     gdb,
		blobs:  blobs,
		logger: l,
	}
}

// UserLogin returns the user for a verified identity, creating it on the
// first login. The Google id never changes once stored.
func (s *General) UserLogin(ctx context.Context, identity *auth.Identity) (*db.User, error) {
	user := db.User{}
	attrs := db.User{Email: auth.NormalizeEmail(identity.Email)}
	if identity.Name != "" {
		attrs.Name = &identity.Name
	}

	res := s.db.WithContext(ctx).
		Where(db.User{GoogleID: identity.GoogleID}).
		Attrs(attrs).
		FirstOrCreate(&user)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "first or create user")
	}
	return &user, nil
}

func (s *General) UserGet(ctx context.Context, userID uint64) (*db.User, error) {
	user := db.User{}
	res := s.db.WithContext(ctx).Where("id = ?", userID).First(&user)
	if res.Error != nil {
		return nil, notFound(res.Error, "user")
	}
	return &user, nil
}

func (s *General) isMember(tx *gorm.DB, userID, groupID uint64) (bool, error) {
	var n int64
	res := tx.Model(&db.GroupMember{}).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		Count(&n)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "count membership")
	}
	return n > 0, nil
}

func (s *General) requireMember(tx *gorm.DB, userID, groupID uint64) error {
	ok, err := s.isMember(tx, userID, groupID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrap(ErrNotFound, "group")
	}
	return nil
}

// notFound turns gorm.ErrRecordNotFound into ErrNotFound and wraps
// everything else as is.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(ErrNotFound, what)
	}
	return errors.Wrap(err, "find "+what)
}
