package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleList_ValueScanRoundTrip(t *testing.T) {
	l := RoleList{RoleAdmin, RoleCommenter}
	v, err := l.Value()
	require.NoError(t, err)
	assert.Equal(t, "admin,commenter", v)

	var got RoleList
	require.NoError(t, got.Scan(v))
	assert.Equal(t, l, got)

	var empty RoleList
	require.NoError(t, empty.Scan(""))
	assert.Nil(t, empty)

	require.NoError(t, empty.Scan(nil))
	assert.Nil(t, empty)
}

func TestRoleList_Intersects(t *testing.T) {
	l := RoleList{RoleAdmin, RoleRoot}
	assert.True(t, l.Intersects([]Role{RoleAdmin}))
	assert.True(t, l.Intersects([]Role{RoleCommenter, RoleRoot}))
	assert.False(t, l.Intersects([]Role{RoleCommenter}))
	assert.False(t, RoleList{}.Intersects([]Role{RoleAdmin}))
}

func TestUserSite_States(t *testing.T) {
	m := &UserSite{Roles: RoleList{SiteRoleCollaborator}}
	assert.False(t, m.Pending())
	assert.True(t, m.CanCollaborate())

	code := "abc"
	m.InviteCode = &code
	assert.True(t, m.Pending())

	// сайтовый админ включает права коллаборатора
	adm := &UserSite{Roles: RoleList{SiteRoleAdmin}}
	assert.True(t, adm.CanCollaborate())

	viewer := &UserSite{Roles: RoleList{"viewer"}}
	assert.False(t, viewer.CanCollaborate())
}
