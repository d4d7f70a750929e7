package models

import (
	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/db"
	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/service"
)

type MessageResp struct {
	Message string `json:"message"`
}

type UserResp struct {
	ID    uint64  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name,omitempty"`
}

type SubjectReq struct {
	Name        string  `json:"name" validate:"required"`
	Professor   *string `json:"professor"`
	Description *string `json:"description"`
}

type SubjectResp struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	Professor   *string `json:"professor,omitempty"`
	Description *string `json:"description,omitempty"`
}

// NoteReq binds from JSON or from the fields of a multipart upload.
type NoteReq struct {
	Title   string  `json:"title" form:"title" validate:"required"`
	Content *string `json:"content" form:"content"`
	Tags    *string `json:"tags" form:"tags"`
}

type NoteResp struct {
	ID            uint64  `json:"id"`
	Title         string  `json:"title"`
	Content       *string `json:"content,omitempty"`
	Tags          *string `json:"tags,omitempty"`
	AttachmentURL *string `json:"attachmentUrl,omitempty"`
	SubjectID     uint64  `json:"subjectId"`
}

type ShareReq struct {
	GroupID uint64 `json:"groupId" validate:"required"`
}

type GroupReq struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}

type GroupJoinReq struct {
	Code string `json:"code" validate:"required"`
}

type GroupResp struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Code        string  `json:"code"`
	Role        string  `json:"role,omitempty"`
}

type MemberReq struct {
	Email string `json:"email" validate:"required,email"`
}

type MemberResp struct {
	ID    uint64  `json:"id"`
	Name  *string `json:"name,omitempty"`
	Email string  `json:"email"`
}

func NewUserResp(u *db.User) UserResp {
	return UserResp{ID: u.ID, Email: u.Email, Name: u.Name}
}

func NewSubjectResp(s *db.Subject) SubjectResp {
	return SubjectResp{
		ID:          s.ID,
		Name:        s.Name,
		Professor:   s.Professor,
		Description: s.Description,
	}
}

func NewSubjectResps(subjects []db.Subject) []SubjectResp {
	resp := make([]SubjectResp, len(subjects))
	for i := range subjects {
		resp[i] = NewSubjectResp(&subjects[i])
	}
	return resp
}

func NewNoteResp(n *db.Note) NoteResp {
	return NoteResp{
		ID:            n.ID,
		Title:         n.Title,
		Content:       n.Content,
		Tags:          n.Tags,
		AttachmentURL: n.AttachmentURL,
		SubjectID:     n.SubjectID,
	}
}

func NewNoteResps(notes []db.Note) []NoteResp {
	resp := make([]NoteResp, len(notes))
	for i := range notes {
		resp[i] = NewNoteResp(&notes[i])
	}
	return resp
}

func NewGroupResp(g *db.Group, role string) GroupResp {
	return GroupResp{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Code:        g.Code,
		Role:        role,
	}
}

func NewGroupResps(groups []service.Membership) []GroupResp {
	resp := make([]GroupResp, len(groups))
	for i := range groups {
		resp[i] = NewGroupResp(&groups[i].Group, groups[i].Role)
	}
	return resp
}

func NewMemberResp(m *service.MemberSummary) MemberResp {
	return MemberResp{ID: m.ID, Name: m.Name, Email: m.Email}
}

func NewMemberResps(members []service.MemberSummary) []MemberResp {
	resp := make([]MemberResp, len(members))
	for i := range members {
		resp[i] = NewMemberResp(&members[i])
	}
	return resp
}
