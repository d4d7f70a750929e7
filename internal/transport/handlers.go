package transport

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/db"
	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/models"
	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/service"
)

func (s *HTTPServer) Me(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	u, err := s.svc.UserGet(c.Request().Context(), user.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.NewUserResp(u))
}

func (s *HTTPServer) SubjectGet(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	subjects, err := s.svc.SubjectList(c.Request().Context(), user.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.NewSubjectResps(subjects))
}

func (s *HTTPServer) SubjectCreate(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := models.SubjectReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	subject, err := s.svc.SubjectCreate(c.Request().Context(), user.UserID, service.SubjectFields{
		Name:        req.Name,
		Professor:   req.Professor,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, models.NewSubjectResp(subject))
}

func (s *HTTPServer) SubjectUpdate(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := models.SubjectReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	subject, err := s.svc.SubjectUpdate(c.Request().Context(), user.UserID, id, service.SubjectFields{
		Name:      req.Name,
		Professor: req.Professor,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.NewSubjectResp(subject))
}

func (s *HTTPServer) SubjectDelete(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	if err := s.svc.SubjectDelete(c.Request().Context(), user.UserID, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.MessageResp{Message: "subject deleted"})
}

func (s *HTTPServer) NoteList(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	notes, err := s.svc.NoteList(c.Request().Context(), user.UserID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.NewNoteResps(notes))
}

// NoteCreate accepts JSON, or a multipart form with an optional
// "attachment" file.
func (s *HTTPServer) NoteCreate(c echo.Context) error {
	subjectID, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := models.NoteReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	var attachment *service.Attachment
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile("attachment")
		switch {
		case err == nil:
			f, err := fh.Open()
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "unreadable attachment")
			}
			defer f.Close()
			attachment = &service.Attachment{Name: fh.Filename, Reader: f}
		case errors.Is(err, http.ErrMissingFile):
		default:
			return echo.NewHTTPError(http.StatusBadRequest, "invalid attachment")
		}
	}

	note, err := s.svc.NoteCreate(c.Request().Context(), user.UserID, subjectID, service.NoteFields{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	}, attachment)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, models.NewNoteResp(note))
}

func (s *HTTPServer) NoteGet(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	note, err := s.svc.NoteGet(c.Request().Context(), user.UserID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.NewNoteResp(note))
}

func (s *HTTPServer) NoteUpdate(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := models.NoteReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	note, err := s.svc.NoteUpdate(c.Request().Context(), user.UserID, id, service.NoteFields{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.NewNoteResp(note))
}

func (s *HTTPServer) NoteDelete(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	if err := s.svc.NoteDelete(c.Request().Context(), user.UserID, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.MessageResp{Message: "note deleted"})
}

func (s *HTTPServer) NoteShare(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := models.ShareReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	if err := s.svc.NoteShare(c.Request().Context(), user.UserID, id, req.GroupID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.MessageResp{Message: "note shared"})
}

func (s *HTTPServer) GroupGet(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	groups, err := s.svc.GroupList(c.Request().Context(), user.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.NewGroupResps(groups))
}

func (s *HTTPServer) GroupCreate(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := models.GroupReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	group, err := s.svc.GroupCreate(c.Request().Context(), user.UserID, service.GroupFields{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, models.NewGroupResp(group, db.RoleAdmin))
}

func (s *HTTPServer) GroupJoin(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := models.GroupJoinReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	group, err := s.svc.GroupJoin(c.Request().Context(), user.UserID, strings.TrimSpace(req.Code))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.NewGroupResp(group, ""))
}

func (s *HTTPServer) MemberList(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	members, err := s.svc.MemberList(c.Request().Context(), user.UserID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.NewMemberResps(members))
}

func (s *HTTPServer) MemberAdd(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := models.MemberReq{}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	member, err := s.svc.MemberAdd(c.Request().Context(), user.UserID, id, req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.NewMemberResp(member))
}

func (s *HTTPServer) GroupNoteList(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	notes, err := s.svc.GroupNoteList(c.Request().Context(), user.UserID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.NewNoteResps(notes))
}

func (s *HTTPServer) NoteUnshare(c echo.Context) error {
	groupID, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	noteID, err := GetAndParseParam(c, "noteId")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	if err := s.svc.NoteUnshare(c.Request().Context(), user.UserID, groupID, noteID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.MessageResp{Message: "note removed from group"})
}
