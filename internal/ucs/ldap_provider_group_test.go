package ucs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProviderGroupFixture(t *testing.T) (*fakeSession, *ProviderGroupManager) {
	t.Helper()
	session := newFakeSession()
	session.seedLDAPExt()
	return session, NewProviderGroupManager(session, testBaseDN)
}

func seedProvider(t *testing.T, session *fakeSession, name string) {
	t.Helper()
	providers := NewLDAPProviderManager(session, testBaseDN)
	_, err := providers.CreateProvider(context.Background(), &CreateProviderRequest{Name: name})
	require.NoError(t, err)
}

func TestCreateProviderGroupThenGet(t *testing.T) {
	_, manager := newProviderGroupFixture(t)

	created, err := manager.CreateProviderGroup(context.Background(), &CreateProviderGroupRequest{
		Name:  "primary",
		Descr: "primary auth sources",
	})
	require.NoError(t, err)
	assert.Equal(t, testBaseDN+"/ldap-ext/providergroup-primary", created.DN)

	got, err := manager.GetProviderGroup(context.Background(), "primary")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "primary auth sources", got.Descr)
}

func TestProviderGroupExists(t *testing.T) {
	_, manager := newProviderGroupFixture(t)

	_, err := manager.CreateProviderGroup(context.Background(), &CreateProviderGroupRequest{Name: "primary", Descr: "x"})
	require.NoError(t, err)

	_, found, err := manager.ProviderGroupExists(context.Background(), "primary", map[string]string{"descr": "x"})
	require.NoError(t, err)
	assert.True(t, found)

	_, found, err = manager.ProviderGroupExists(context.Background(), "primary", map[string]string{"descr": "y"})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestModifyProviderGroup(t *testing.T) {
	_, manager := newProviderGroupFixture(t)

	_, err := manager.CreateProviderGroup(context.Background(), &CreateProviderGroupRequest{Name: "primary"})
	require.NoError(t, err)

	updated, err := manager.ModifyProviderGroup(context.Background(), "primary", map[string]string{"descr": "updated"})
	require.NoError(t, err)
	assert.Equal(t, "updated", updated.Descr)

	_, err = manager.ModifyProviderGroup(context.Background(), "ghost", map[string]string{"descr": "x"})
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestDeleteProviderGroup(t *testing.T) {
	_, manager := newProviderGroupFixture(t)

	_, err := manager.CreateProviderGroup(context.Background(), &CreateProviderGroupRequest{Name: "primary"})
	require.NoError(t, err)

	require.NoError(t, manager.DeleteProviderGroup(context.Background(), "primary"))

	got, err := manager.GetProviderGroup(context.Background(), "primary")
	require.NoError(t, err)
	assert.Nil(t, got)

	err = manager.DeleteProviderGroup(context.Background(), "primary")
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestAddProviderRef(t *testing.T) {
	session, manager := newProviderGroupFixture(t)
	seedProvider(t, session, "corp-ldap")

	_, err := manager.CreateProviderGroup(context.Background(), &CreateProviderGroupRequest{Name: "primary"})
	require.NoError(t, err)

	ref, err := manager.AddProviderRef(context.Background(), &AddProviderRefRequest{
		GroupName:    "primary",
		ProviderName: "corp-ldap",
	})
	require.NoError(t, err)
	assert.Equal(t, testBaseDN+"/ldap-ext/providergroup-primary/provider-ref-corp-ldap", ref.DN)
	assert.Equal(t, "lowest-available", ref.Order, "order defaults when unset")

	got, err := manager.GetProviderRef(context.Background(), "primary", "corp-ldap")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "corp-ldap", got.Name)
}

func TestAddProviderRefMissingGroup(t *testing.T) {
	session, manager := newProviderGroupFixture(t)
	seedProvider(t, session, "corp-ldap")

	commitsBefore := session.commits

	_, err := manager.AddProviderRef(context.Background(), &AddProviderRefRequest{
		GroupName:    "ghost",
		ProviderName: "corp-ldap",
	})
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
	assert.Equal(t, commitsBefore, session.commits)
}

func TestAddProviderRefMissingProvider(t *testing.T) {
	session, manager := newProviderGroupFixture(t)

	_, err := manager.CreateProviderGroup(context.Background(), &CreateProviderGroupRequest{Name: "primary"})
	require.NoError(t, err)

	commitsBefore := session.commits

	_, err = manager.AddProviderRef(context.Background(), &AddProviderRefRequest{
		GroupName:    "primary",
		ProviderName: "ghost",
	})
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
	assert.Equal(t, commitsBefore, session.commits, "no reference object is created")

	got, err := manager.GetProviderRef(context.Background(), "primary", "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestModifyProviderRef(t *testing.T) {
	session, manager := newProviderGroupFixture(t)
	seedProvider(t, session, "corp-ldap")

	_, err := manager.CreateProviderGroup(context.Background(), &CreateProviderGroupRequest{Name: "primary"})
	require.NoError(t, err)
	_, err = manager.AddProviderRef(context.Background(), &AddProviderRefRequest{
		GroupName:    "primary",
		ProviderName: "corp-ldap",
	})
	require.NoError(t, err)

	// Deleting the referenced provider does not block reference updates.
	providers := NewLDAPProviderManager(session, testBaseDN)
	require.NoError(t, providers.DeleteProvider(context.Background(), "corp-ldap"))

	updated, err := manager.ModifyProviderRef(context.Background(), "primary", "corp-ldap", map[string]string{"order": "2"})
	require.NoError(t, err)
	assert.Equal(t, "2", updated.Order)
}

func TestRemoveProviderRef(t *testing.T) {
	session, manager := newProviderGroupFixture(t)
	seedProvider(t, session, "corp-ldap")

	_, err := manager.CreateProviderGroup(context.Background(), &CreateProviderGroupRequest{Name: "primary"})
	require.NoError(t, err)
	_, err = manager.AddProviderRef(context.Background(), &AddProviderRefRequest{
		GroupName:    "primary",
		ProviderName: "corp-ldap",
	})
	require.NoError(t, err)

	require.NoError(t, manager.RemoveProviderRef(context.Background(), "primary", "corp-ldap"))

	got, err := manager.GetProviderRef(context.Background(), "primary", "corp-ldap")
	require.NoError(t, err)
	assert.Nil(t, got)

	err = manager.RemoveProviderRef(context.Background(), "primary", "corp-ldap")
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestProviderRefExists(t *testing.T) {
	session, manager := newProviderGroupFixture(t)
	seedProvider(t, session, "corp-ldap")

	_, err := manager.CreateProviderGroup(context.Background(), &CreateProviderGroupRequest{Name: "primary"})
	require.NoError(t, err)
	_, err = manager.AddProviderRef(context.Background(), &AddProviderRefRequest{
		GroupName:    "primary",
		ProviderName: "corp-ldap",
		Order:        "1",
	})
	require.NoError(t, err)

	_, found, err := manager.ProviderRefExists(context.Background(), "primary", "corp-ldap", map[string]string{"order": "1"})
	require.NoError(t, err)
	assert.True(t, found)

	_, found, err = manager.ProviderRefExists(context.Background(), "primary", "corp-ldap", map[string]string{"order": "9"})
	require.NoError(t, err)
	assert.False(t, found)
}
