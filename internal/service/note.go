package service

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/db"
)

type NoteFields struct {
	Title   string
	Content *string
	Tags    *string
}

// Attachment is an uploaded file waiting to be handed to the blob store.
type Attachment struct {
	Name   string
	Reader io.Reader
}

func (s *General) NoteList(ctx context.Context, userID, subjectID uint64) ([]db.Note, error) {
	tx := s.db.WithContext(ctx)
	if _, err := s.ownedSubject(tx, userID, subjectID); err != nil {
		return nil, err
	}

	notes := make([]db.Note, 0)
	res := tx.Where("subject_id = ?", subjectID).Order("id").Find(&notes)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "find notes")
	}
	return notes, nil
}

func (s *General) NoteGet(ctx context.Context, userID, noteID uint64) (*db.Note, error) {
	return s.ownedNote(s.db.WithContext(ctx), userID, noteID)
}

// NoteCreate stores the attachment first, if any. A blob whose note row
// could not be written stays behind in the store.
func (s *General) NoteCreate(ctx context.Context, userID, subjectID uint64, f NoteFields, att *Attachment) (*db.Note, error) {
	tx := s.db.WithContext(ctx)
	if _, err := s.ownedSubject(tx, userID, subjectID); err != nil {
		return nil, err
	}

	model := db.Note{
		Title:     f.Title,
		Content:   f.Content,
		Tags:      f.Tags,
		SubjectID: subjectID,
	}

	if att != nil {
		url, err := s.blobs.Store(ctx, att.Reader, att.Name)
		if err != nil {
			return nil, errors.Wrap(err, "store attachment")
		}
		model.AttachmentURL = &url
	}

	res := tx.Create(&model)
	if res.Error != nil {
		if model.AttachmentURL != nil {
			s.logger.Warnw("Attachment orphaned by failed note insert.",
				"url", *model.AttachmentURL, "subject_id", subjectID, "error", res.Error)
		}
		return nil, errors.Wrap(res.Error, "create note")
	}
	return &model, nil
}

// NoteUpdate changes title, content and tags. The attachment is kept.
func (s *General) NoteUpdate(ctx context.Context, userID, noteID uint64, f NoteFields) (*db.Note, error) {
	model := db.Note{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.ownedNote(tx, userID, noteID)
		if err != nil {
			return err
		}

		res := tx.Model(found).Updates(map[string]interface{}{
			"title":   f.Title,
			"content": f.Content,
			"tags":    f.Tags,
		})
		if res.Error != nil {
			return errors.Wrap(res.Error, "update note")
		}

		found, err = s.ownedNote(tx, userID, noteID)
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

// NoteDelete removes the note and every share of it.
func (s *General) NoteDelete(ctx context.Context, userID, noteID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.ownedNote(tx, userID, noteID); err != nil {
			return err
		}

		if res := tx.Where("note_id = ?", noteID).Delete(&db.SharedNote{}); res.Error != nil {
			return errors.Wrap(res.Error, "delete shares")
		}
		if res := tx.Where("id = ?", noteID).Delete(&db.Note{}); res.Error != nil {
			return errors.Wrap(res.Error, "delete note")
		}
		return nil
	})
}

// NoteShare links a note into a group. The caller must own the note and
// belong to the group. Sharing twice is a no-op.
func (s *General) NoteShare(ctx context.Context, userID, noteID, groupID uint64) error {
	tx := s.db.WithContext(ctx)
	if _, err := s.ownedNote(tx, userID, noteID); err != nil {
		return err
	}
	if err := s.requireMember(tx, userID, groupID); err != nil {
		return err
	}

	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&db.SharedNote{
		NoteID:     noteID,
		GroupID:    groupID,
		Permission: db.PermissionRead,
	})
	if res.Error != nil {
		return errors.Wrap(res.Error, "create share")
	}
	return nil
}

// ownedNote finds a note through its subject's owner in one predicate.
func (s *General) ownedNote(tx *gorm.DB, userID, noteID uint64) (*db.Note, error) {
	model := db.Note{}
	res := tx.Model(&db.Note{}).
		Select("notes.*").
		Joins("JOIN subjects ON subjects.id = notes.subject_id").
		Where("notes.id = ? AND subjects.user_id = ?", noteID, userID).
		First(&model)
	if res.Error != nil {
		return nil, notFound(res.Error, "note")
	}
	return &model, nil
}
