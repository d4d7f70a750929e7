package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/db"
)

func titles(notes []db.Note) []string {
	out := make([]string, len(notes))
	for i := range notes {
		out[i] = notes[i].Title
	}
	return out
}

func TestGroupCreate(t *testing.T) {
	s, gdb, _ := newTestService(t)
	ctx := context.Background()
	a := login(t, s, "g-a", "a@stud.ase.ro", "A")

	g, err := s.GroupCreate(ctx, a.ID, GroupFields{Name: "Study Crew", Description: strPtr("exam prep")})
	require.NoError(t, err)
	assert.NotEmpty(t, g.Code)

	other, err := s.GroupCreate(ctx, a.ID, GroupFields{Name: "Study Crew"})
	require.NoError(t, err)
	assert.NotEqual(t, g.Code, other.Code)

	m := db.GroupMember{}
	require.NoError(t, gdb.Where("group_id = ? AND user_id = ?", g.ID, a.ID).First(&m).Error)
	assert.Equal(t, db.RoleAdmin, m.Role)

	groups, err := s.GroupList(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Study Crew", groups[0].Name)
	assert.Equal(t, "exam prep", *groups[0].Description)
	assert.Equal(t, db.RoleAdmin, groups[0].Role)
	assert.Equal(t, g.Code, groups[0].Code)
}

func TestMemberAdd(t *testing.T) {
	s, gdb, _ := newTestService(t)
	ctx := context.Background()
	a := login(t, s, "g-a", "a@stud.ase.ro", "A")
	b := login(t, s, "g-b", "b@stud.ase.ro", "B")
	c := login(t, s, "g-c", "c@stud.ase.ro", "C")

	g, err := s.GroupCreate(ctx, a.ID, GroupFields{Name: "Study Crew"})
	require.NoError(t, err)

	t.Run("normalized email twice", func(t *testing.T) {
		m, err := s.MemberAdd(ctx, a.ID, g.ID, "  B@Stud.ASE.ro ")
		require.NoError(t, err)
		assert.Equal(t, b.ID, m.ID)
		assert.Equal(t, "b@stud.ase.ro", m.Email)

		_, err = s.MemberAdd(ctx, a.ID, g.ID, "b@stud.ase.ro")
		require.NoError(t, err)

		assert.Equal(t, int64(1), count(t, gdb, &db.GroupMember{}, "group_id = ? AND user_id = ?", g.ID, b.ID))

		role := db.GroupMember{}
		require.NoError(t, gdb.Where("group_id = ? AND user_id = ?", g.ID, b.ID).First(&role).Error)
		assert.Equal(t, db.RoleMember, role.Role)
	})

	t.Run("admin stays admin when re-added", func(t *testing.T) {
		_, err := s.MemberAdd(ctx, b.ID, g.ID, "a@stud.ase.ro")
		require.NoError(t, err)

		role := db.GroupMember{}
		require.NoError(t, gdb.Where("group_id = ? AND user_id = ?", g.ID, a.ID).First(&role).Error)
		assert.Equal(t, db.RoleAdmin, role.Role)
	})

	t.Run("unknown email", func(t *testing.T) {
		before := count(t, gdb, &db.GroupMember{}, "group_id = ?", g.ID)
		_, err := s.MemberAdd(ctx, a.ID, g.ID, "nobody@stud.ase.ro")
		assertNotFound(t, err)
		assert.Equal(t, before, count(t, gdb, &db.GroupMember{}, "group_id = ?", g.ID))
	})

	t.Run("non member cannot invite", func(t *testing.T) {
		_, err := s.MemberAdd(ctx, c.ID, g.ID, "c@stud.ase.ro")
		assertNotFound(t, err)
		assert.Equal(t, int64(0), count(t, gdb, &db.GroupMember{}, "group_id = ? AND user_id = ?", g.ID, c.ID))
	})

	t.Run("member list", func(t *testing.T) {
		members, err := s.MemberList(ctx, b.ID, g.ID)
		require.NoError(t, err)
		require.Len(t, members, 2)
		assert.Equal(t, a.ID, members[0].ID)
		assert.Equal(t, "a@stud.ase.ro", members[0].Email)
		assert.Equal(t, "A", *members[0].Name)
		assert.Equal(t, b.ID, members[1].ID)

		_, err = s.MemberList(ctx, c.ID, g.ID)
		assertNotFound(t, err)
	})
}

func TestGroupJoin(t *testing.T) {
	s, gdb, _ := newTestService(t)
	ctx := context.Background()
	a := login(t, s, "g-a", "a@stud.ase.ro", "A")
	b := login(t, s, "g-b", "b@stud.ase.ro", "B")

	g, err := s.GroupCreate(ctx, a.ID, GroupFields{Name: "Study Crew"})
	require.NoError(t, err)

	joined, err := s.GroupJoin(ctx, b.ID, g.Code)
	require.NoError(t, err)
	assert.Equal(t, g.ID, joined.ID)

	_, err = s.GroupJoin(ctx, b.ID, g.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count(t, gdb, &db.GroupMember{}, "group_id = ? AND user_id = ?", g.ID, b.ID))

	_, err = s.GroupJoin(ctx, b.ID, "no-such-code")
	assertNotFound(t, err)
}

func TestNoteUnshare(t *testing.T) {
	s, gdb, _ := newTestService(t)
	ctx := context.Background()
	a := login(t, s, "g-a", "a@stud.ase.ro", "A")
	c := login(t, s, "g-c", "c@stud.ase.ro", "C")

	subj, err := s.SubjectCreate(ctx, a.ID, SubjectFields{Name: "Algorithms"})
	require.NoError(t, err)
	n, err := s.NoteCreate(ctx, a.ID, subj.ID, NoteFields{Title: "Lecture 1"}, nil)
	require.NoError(t, err)
	g, err := s.GroupCreate(ctx, a.ID, GroupFields{Name: "Study Crew"})
	require.NoError(t, err)
	require.NoError(t, s.NoteShare(ctx, a.ID, n.ID, g.ID))

	assertNotFound(t, s.NoteUnshare(ctx, c.ID, g.ID, n.ID))
	assert.Equal(t, int64(1), count(t, gdb, &db.SharedNote{}, "group_id = ?", g.ID))

	require.NoError(t, s.NoteUnshare(ctx, a.ID, g.ID, n.ID))
	assert.Equal(t, int64(0), count(t, gdb, &db.SharedNote{}, "group_id = ?", g.ID))

	// already gone
	require.NoError(t, s.NoteUnshare(ctx, a.ID, g.ID, n.ID))

	assertNotFound(t, s.NoteUnshare(ctx, a.ID, g.ID, 999))

	got, err := s.NoteGet(ctx, a.ID, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lecture 1", got.Title)
}

func TestStudyCrewScenario(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()
	a := login(t, s, "g-a", "a@stud.ase.ro", "A")
	b := login(t, s, "g-b", "b@stud.ase.ro", "B")
	c := login(t, s, "g-c", "c@stud.ase.ro", "C")

	subj, err := s.SubjectCreate(ctx, a.ID, SubjectFields{Name: "Algorithms"})
	require.NoError(t, err)
	note, err := s.NoteCreate(ctx, a.ID, subj.ID, NoteFields{Title: "Lecture 1", Content: strPtr("intro")}, nil)
	require.NoError(t, err)
	crew, err := s.GroupCreate(ctx, a.ID, GroupFields{Name: "Study Crew"})
	require.NoError(t, err)

	require.NoError(t, s.NoteShare(ctx, a.ID, note.ID, crew.ID))
	_, err = s.MemberAdd(ctx, a.ID, crew.ID, "b@stud.ase.ro")
	require.NoError(t, err)

	shared, err := s.GroupNoteList(ctx, b.ID, crew.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lecture 1"}, titles(shared))
	assert.Equal(t, "intro", *shared[0].Content)

	_, err = s.GroupNoteList(ctx, c.ID, crew.ID)
	assertNotFound(t, err)
	_, err = s.MemberList(ctx, c.ID, crew.ID)
	assertNotFound(t, err)

	require.NoError(t, s.NoteUnshare(ctx, a.ID, crew.ID, note.ID))

	shared, err = s.GroupNoteList(ctx, b.ID, crew.ID)
	require.NoError(t, err)
	assert.Empty(t, shared)

	direct, err := s.NoteGet(ctx, a.ID, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lecture 1", direct.Title)
	assert.Equal(t, "intro", *direct.Content)
	assert.Equal(t, subj.ID, direct.SubjectID)
}
