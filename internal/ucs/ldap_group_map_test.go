package ucs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newGroupMapFixture() (*fakeSession, *GroupMapManager, *LocaleManager) {
	session := newFakeSession()
	session.seedLDAPExt()
	locales := NewLocaleManager(session, testBaseDN)
	return session, NewGroupMapManager(session, testBaseDN, locales), locales
}

func seedLocale(session *fakeSession, name string) {
	mo := NewManagedObject("aaaLocale", testBaseDN+"/locale-"+name)
	mo.SetProp("name", name)
	session.seed(mo)
}

func TestCreateGroupMapThenGet(t *testing.T) {
	_, manager, _ := newGroupMapFixture()

	created, err := manager.CreateGroupMap(context.Background(), &CreateGroupMapRequest{
		Name:  "cn=admins.ou=groups",
		Descr: "directory admins",
	})
	require.NoError(t, err)
	assert.Equal(t, testBaseDN+"/ldap-ext/ldapgroup-cn=admins.ou=groups", created.DN)

	got, err := manager.GetGroupMap(context.Background(), "cn=admins.ou=groups")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "directory admins", got.Descr)
}

func TestGroupMapExists(t *testing.T) {
	_, manager, _ := newGroupMapFixture()

	_, err := manager.CreateGroupMap(context.Background(), &CreateGroupMapRequest{Name: "admins", Descr: "x"})
	require.NoError(t, err)

	_, found, err := manager.GroupMapExists(context.Background(), "admins", map[string]string{"descr": "x"})
	require.NoError(t, err)
	assert.True(t, found)

	_, found, err = manager.GroupMapExists(context.Background(), "admins", map[string]string{"descr": "y"})
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = manager.GroupMapExists(context.Background(), "ghost", nil)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteGroupMap(t *testing.T) {
	_, manager, _ := newGroupMapFixture()

	_, err := manager.CreateGroupMap(context.Background(), &CreateGroupMapRequest{Name: "admins"})
	require.NoError(t, err)

	require.NoError(t, manager.DeleteGroupMap(context.Background(), "admins"))

	got, err := manager.GetGroupMap(context.Background(), "admins")
	require.NoError(t, err)
	assert.Nil(t, got)

	err = manager.DeleteGroupMap(context.Background(), "admins")
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestAddRole(t *testing.T) {
	_, manager, _ := newGroupMapFixture()

	_, err := manager.CreateGroupMap(context.Background(), &CreateGroupMapRequest{Name: "admins"})
	require.NoError(t, err)

	role, err := manager.AddRole(context.Background(), "admins", "aaa", "")
	require.NoError(t, err)
	assert.Equal(t, testBaseDN+"/ldap-ext/ldapgroup-admins/role-aaa", role.DN)

	got, err := manager.GetRole(context.Background(), "admins", "aaa")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "aaa", got.Name)
}

func TestAddRoleMissingGroupMap(t *testing.T) {
	session := &MockSession{}
	locales := NewLocaleManager(session, testBaseDN)
	manager := NewGroupMapManager(session, testBaseDN, locales)

	session.On("QueryDN", mock.Anything, manager.GroupMapDN("ghost")).Return(nil, nil)

	_, err := manager.AddRole(context.Background(), "ghost", "aaa", "")
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))

	session.AssertNotCalled(t, "AddMO", mock.Anything, mock.Anything, mock.Anything)
	session.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestRemoveRole(t *testing.T) {
	_, manager, _ := newGroupMapFixture()

	_, err := manager.CreateGroupMap(context.Background(), &CreateGroupMapRequest{Name: "admins"})
	require.NoError(t, err)
	_, err = manager.AddRole(context.Background(), "admins", "aaa", "")
	require.NoError(t, err)

	require.NoError(t, manager.RemoveRole(context.Background(), "admins", "aaa"))

	got, err := manager.GetRole(context.Background(), "admins", "aaa")
	require.NoError(t, err)
	assert.Nil(t, got)

	err = manager.RemoveRole(context.Background(), "admins", "aaa")
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestAddLocale(t *testing.T) {
	session, manager, _ := newGroupMapFixture()
	seedLocale(session, "west")

	_, err := manager.CreateGroupMap(context.Background(), &CreateGroupMapRequest{Name: "admins"})
	require.NoError(t, err)

	ref, err := manager.AddLocale(context.Background(), "admins", "west", "")
	require.NoError(t, err)
	assert.Equal(t, testBaseDN+"/ldap-ext/ldapgroup-admins/locale-west", ref.DN)

	got, err := manager.GetLocaleRef(context.Background(), "admins", "west")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "west", got.Name)
}

func TestAddLocaleMissingLocale(t *testing.T) {
	session, manager, _ := newGroupMapFixture()
	// No locale seeded.

	_, err := manager.CreateGroupMap(context.Background(), &CreateGroupMapRequest{Name: "admins"})
	require.NoError(t, err)

	commitsBefore := session.commits

	_, err = manager.AddLocale(context.Background(), "admins", "ghost", "")
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
	assert.Equal(t, commitsBefore, session.commits, "no reference object is created")

	got, err := manager.GetLocaleRef(context.Background(), "admins", "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRemoveLocale(t *testing.T) {
	session, manager, _ := newGroupMapFixture()
	seedLocale(session, "west")

	_, err := manager.CreateGroupMap(context.Background(), &CreateGroupMapRequest{Name: "admins"})
	require.NoError(t, err)
	_, err = manager.AddLocale(context.Background(), "admins", "west", "")
	require.NoError(t, err)

	require.NoError(t, manager.RemoveLocale(context.Background(), "admins", "west"))

	got, err := manager.GetLocaleRef(context.Background(), "admins", "west")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRemoveLocaleAfterLocaleDeleted(t *testing.T) {
	session, manager, _ := newGroupMapFixture()
	seedLocale(session, "west")

	_, err := manager.CreateGroupMap(context.Background(), &CreateGroupMapRequest{Name: "admins"})
	require.NoError(t, err)
	_, err = manager.AddLocale(context.Background(), "admins", "west", "")
	require.NoError(t, err)

	// The registry entry vanishes while the mapping still exists.
	delete(session.objects, testBaseDN+"/locale-west")

	err = manager.RemoveLocale(context.Background(), "admins", "west")
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))

	got, err := manager.GetLocaleRef(context.Background(), "admins", "west")
	require.NoError(t, err)
	assert.NotNil(t, got, "the mapping object is left untouched")
}

func TestLocaleRefExists(t *testing.T) {
	session, manager, _ := newGroupMapFixture()
	seedLocale(session, "west")

	_, err := manager.CreateGroupMap(context.Background(), &CreateGroupMapRequest{Name: "admins"})
	require.NoError(t, err)
	_, err = manager.AddLocale(context.Background(), "admins", "west", "dc locale")
	require.NoError(t, err)

	_, found, err := manager.LocaleRefExists(context.Background(), "admins", "west", map[string]string{"descr": "dc locale"})
	require.NoError(t, err)
	assert.True(t, found)

	_, found, err = manager.LocaleRefExists(context.Background(), "admins", "west", map[string]string{"descr": "other"})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLocaleManager(t *testing.T) {
	session := newFakeSession()
	seedLocale(session, "west")
	locales := NewLocaleManager(session, testBaseDN)

	locale, err := locales.GetLocale(context.Background(), "west")
	require.NoError(t, err)
	require.NotNil(t, locale)
	assert.Equal(t, "west", locale.Name)

	absent, err := locales.GetLocale(context.Background(), "east")
	require.NoError(t, err)
	assert.Nil(t, absent)

	_, found, err := locales.LocaleExists(context.Background(), "west", nil)
	require.NoError(t, err)
	assert.True(t, found)

	_, found, err = locales.LocaleExists(context.Background(), "east", nil)
	require.NoError(t, err)
	assert.False(t, found)
}
