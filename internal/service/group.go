package service

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/auth"
	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/db"
)

type (
	GroupFields struct {
		Name        string
		Description *string
	}

	// Membership is a group as seen by one of its members.
	Membership struct {
		db.Group
		Role string
	}

	// MemberSummary never carries role or join data.
	MemberSummary struct {
		ID    uint64
		Name  *string
		Email string
	}
)

func (s *General) GroupList(ctx context.Context, userID uint64) ([]Membership, error) {
	sql, args, err := squirrel.
		Select("g.id", "g.created_at", "g.updated_at", "g.name", "g.description", "g.code", "gm.role").
		From("study_groups g").
		Join("group_members gm ON gm.group_id = g.id").
		Where(squirrel.Eq{"gm.user_id": userID}).
		OrderBy("g.id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	groups := make([]Membership, 0)
	res := s.db.WithContext(ctx).Raw(sql, args...).Scan(&groups)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "scan")
	}
	return groups, nil
}

// GroupCreate makes the creator the group's first admin.
func (s *General) GroupCreate(ctx context.Context, userID uint64, f GroupFields) (*db.Group, error) {
	model := db.Group{
		Name:        f.Name,
		Description: f.Description,
		Code:        uuid.New().String(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if res := tx.Create(&model); res.Error != nil {
			return errors.Wrap(res.Error, "create group")
		}
		res := tx.Create(&db.GroupMember{
			UserID:  userID,
			GroupID: model.ID,
			Role:    db.RoleAdmin,
		})
		if res.Error != nil {
			return errors.Wrap(res.Error, "create admin membership")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &model, nil
}

// GroupJoin adds the caller as a member of the group holding the code.
func (s *General) GroupJoin(ctx context.Context, userID uint64, code string) (*db.Group, error) {
	tx := s.db.WithContext(ctx)

	group := db.Group{}
	if res := tx.Where("code = ?", code).First(&group); res.Error != nil {
		return nil, notFound(res.Error, "group")
	}

	if err := s.addMembership(tx, userID, group.ID); err != nil {
		return nil, err
	}
	return &group, nil
}

func (s *General) MemberList(ctx context.Context, userID, groupID uint64) ([]MemberSummary, error) {
	tx := s.db.WithContext(ctx)
	if err := s.requireMember(tx, userID, groupID); err != nil {
		return nil, err
	}

	sql, args, err := squirrel.
		Select("u.id", "u.name", "u.email").
		From("users u").
		Join("group_members gm ON gm.user_id = u.id").
		Where(squirrel.Eq{"gm.group_id": groupID}).
		OrderBy("gm.id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	members := make([]MemberSummary, 0)
	if res := tx.Raw(sql, args...).Scan(&members); res.Error != nil {
		return nil, errors.Wrap(res.Error, "scan")
	}
	return members, nil
}

// MemberAdd lets any member invite a registered user by email.
// Adding an existing member changes nothing.
func (s *General) MemberAdd(ctx context.Context, userID, groupID uint64, email string) (*MemberSummary, error) {
	tx := s.db.WithContext(ctx)
	if err := s.requireMember(tx, userID, groupID); err != nil {
		return nil, err
	}

	invited := db.User{}
	res := tx.Where("email = ?", auth.NormalizeEmail(email)).First(&invited)
	if res.Error != nil {
		return nil, notFound(res.Error, "user")
	}

	if err := s.addMembership(tx, invited.ID, groupID); err != nil {
		return nil, err
	}

	return &MemberSummary{
		ID:    invited.ID,
		Name:  invited.Name,
		Email: invited.Email,
	}, nil
}

func (s *General) GroupNoteList(ctx context.Context, userID, groupID uint64) ([]db.Note, error) {
	tx := s.db.WithContext(ctx)
	if err := s.requireMember(tx, userID, groupID); err != nil {
		return nil, err
	}

	sql, args, err := squirrel.
		Select("n.id", "n.created_at", "n.updated_at", "n.title", "n.content", "n.attachment_url", "n.tags", "n.subject_id").
		From("notes n").
		Join("shared_notes sn ON sn.note_id = n.id").
		Where(squirrel.Eq{"sn.group_id": groupID}).
		OrderBy("sn.id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	notes := make([]db.Note, 0)
	if res := tx.Raw(sql, args...).Scan(&notes); res.Error != nil {
		return nil, errors.Wrap(res.Error, "scan")
	}
	return notes, nil
}

// NoteUnshare drops the share edge only. The group and the note must
// exist, the edge itself may already be gone.
func (s *General) NoteUnshare(ctx context.Context, userID, groupID, noteID uint64) error {
	tx := s.db.WithContext(ctx)
	if err := s.requireMember(tx, userID, groupID); err != nil {
		return err
	}

	if res := tx.Where("id = ?", groupID).First(&db.Group{}); res.Error != nil {
		return notFound(res.Error, "group")
	}
	if res := tx.Where("id = ?", noteID).First(&db.Note{}); res.Error != nil {
		return notFound(res.Error, "note")
	}

	res := tx.Where("group_id = ? AND note_id = ?", groupID, noteID).Delete(&db.SharedNote{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete share")
	}
	return nil
}

func (s *General) addMembership(tx *gorm.DB, userID, groupID uint64) error {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&db.GroupMember{
		UserID:  userID,
		GroupID: groupID,
		Role:    db.RoleMember,
	})
	if res.Error != nil {
		return errors.Wrap(res.Error, "create membership")
	}
	return nil
}
