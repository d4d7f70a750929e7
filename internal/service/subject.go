package service

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/db"
)

type SubjectFields struct {
	Name        string
	Professor   *string
	Description *string
}

func (s *General) SubjectList(ctx context.Context, userID uint64) ([]db.Subject, error) {
	subjects := make([]db.Subject, 0)
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&subjects)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "find subjects")
	}
	return subjects, nil
}

func (s *General) SubjectCreate(ctx context.Context, userID uint64, f SubjectFields) (*db.Subject, error) {
	model := db.Subject{
		Name:        f.Name,
		Professor:   f.Professor,
		Description: f.Description,
		UserID:      userID,
	}

	res := s.db.WithContext(ctx).Create(&model)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "create subject")
	}
	return &model, nil
}

// SubjectUpdate changes name and professor. Description is left as is.
func (s *General) SubjectUpdate(ctx context.Context, userID, subjectID uint64, f SubjectFields) (*db.Subject, error) {
	model := db.Subject{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&db.Subject{}).
			Where("id = ? AND user_id = ?", subjectID, userID).
			Updates(map[string]interface{}{
				"name":      f.Name,
				"professor": f.Professor,
			})
		if res.Error != nil {
			return errors.Wrap(res.Error, "update subject")
		}
		if res.RowsAffected == 0 {
			return errors.Wrap(ErrNotFound, "subject")
		}

		found, err := s.ownedSubject(tx, userID, subjectID)
		if err != nil {
			return err
		}
		model = *found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &model, nil
}

// SubjectDelete removes the subject together with its notes and their shares.
func (s *General) SubjectDelete(ctx context.Context, userID, subjectID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.ownedSubject(tx, userID, subjectID); err != nil {
			return err
		}

		noteIDs := tx.Model(&db.Note{}).Select("id").Where("subject_id = ?", subjectID)
		if res := tx.Where("note_id IN (?)", noteIDs).Delete(&db.SharedNote{}); res.Error != nil {
			return errors.Wrap(res.Error, "delete shares")
		}
		if res := tx.Where("subject_id = ?", subjectID).Delete(&db.Note{}); res.Error != nil {
			return errors.Wrap(res.Error, "delete notes")
		}
		if res := tx.Where("id = ? AND user_id = ?", subjectID, userID).Delete(&db.Subject{}); res.Error != nil {
			return errors.Wrap(res.Error, "delete subject")
		}
		return nil
	})
}

func (s *General) ownedSubject(tx *gorm.DB, userID, subjectID uint64) (*db.Subject, error) {
	model := db.Subject{}
	res := tx.Where("id = ? AND user_id = ?", subjectID, userID).First(&model)
	if res.Error != nil {
		return nil, notFound(res.Error, "subject")
	}
	return &model, nil
}
