package ucs

import (
	"context"
	"fmt"

	"github.com/creasty/defaults"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

const (
	classProviderGroup = "aaaProviderGroup"
	classProviderRef   = "aaaProviderRef"
)

// LDAPProviderGroup is a named, ordered collection of provider references
// usable as an authentication source set.
type LDAPProviderGroup struct {
	DN    string
	Name  string
	Descr string
	Props map[string]string
}

// ProviderRef is a member of a provider group, referencing an existing
// LDAP provider by name.
type ProviderRef struct {
	DN    string
	Name  string
	Order string
	Descr string
	Props map[string]string
}

// CreateProviderGroupRequest carries the parameters for creating a provider group.
type CreateProviderGroupRequest struct {
	Name  string
	Descr string

	ExtraProps map[string]string
}

// AddProviderRefRequest carries the parameters for adding a provider
// reference to a provider group.
type AddProviderRefRequest struct {
	GroupName    string
	ProviderName string
	Order        string `default:"lowest-available"`
	Descr        string

	ExtraProps map[string]string
}

// ProviderGroupManager handles provider group operations including
// membership references.
type ProviderGroupManager struct {
	session Session
	baseDN  string
}

// NewProviderGroupManager creates a provider group manager rooted at the
// given device profile DN.
func NewProviderGroupManager(session Session, baseDN string) *ProviderGroupManager {
	return &ProviderGroupManager{
		session: session,
		baseDN:  baseDN,
	}
}

// ProviderGroupDN returns the DN of the named provider group.
func (m *ProviderGroupManager) ProviderGroupDN(name string) string {
	return BuildDN(m.baseDN, rnLDAPExt, rnPrefixProviderGroup+name)
}

// ProviderRefDN returns the DN of a provider reference inside a group.
func (m *ProviderGroupManager) ProviderRefDN(groupName, providerName string) string {
	return BuildDN(m.ProviderGroupDN(groupName), rnPrefixProviderRef+providerName)
}

// providerDN addresses a provider definition, used to validate references.
func (m *ProviderGroupManager) providerDN(name string) string {
	return BuildDN(m.baseDN, rnLDAPExt, rnPrefixProvider+name)
}

// CreateProviderGroup creates a provider group. An existing group with the
// same name is overwritten.
func (m *ProviderGroupManager) CreateProviderGroup(ctx context.Context, req *CreateProviderGroupRequest) (*LDAPProviderGroup, error) {
	const op = "ldap_provider_group_create"

	if err := ValidateObjectName(req.Name); err != nil {
		return nil, WrapError(op, err)
	}

	mo := NewManagedObject(classProviderGroup, m.ProviderGroupDN(req.Name))
	mo.MergeProps(map[string]string{
		"name":  req.Name,
		"descr": req.Descr,
	})
	mo.MergeProps(req.ExtraProps)

	if err := m.session.AddMO(ctx, mo, true); err != nil {
		return nil, WrapError(op, err)
	}
	if err := m.session.Commit(ctx); err != nil {
		return nil, WrapError(op, err)
	}

	tflog.SubsystemInfo(ctx, "ucs", "Created LDAP provider group", map[string]any{
		"name": req.Name,
		"dn":   mo.DN,
	})

	return providerGroupFromMO(mo), nil
}

// GetProviderGroup fetches the named provider group. Absence yields (nil, nil).
func (m *ProviderGroupManager) GetProviderGroup(ctx context.Context, name string) (*LDAPProviderGroup, error) {
	mo, err := m.session.QueryDN(ctx, m.ProviderGroupDN(name))
	if err != nil {
		return nil, WrapError("ldap_provider_group_get", err)
	}
	if mo == nil {
		return nil, nil
	}
	return providerGroupFromMO(mo), nil
}

// ProviderGroupExists checks whether the named provider group exists and
// matches every expected property.
func (m *ProviderGroupManager) ProviderGroupExists(ctx context.Context, name string, expected map[string]string) (*LDAPProviderGroup, bool, error) {
	mo, err := m.session.QueryDN(ctx, m.ProviderGroupDN(name))
	if err != nil {
		return nil, false, WrapError("ldap_provider_group_exists", err)
	}
	if mo == nil || !mo.MatchProps(expected) {
		return nil, false, nil
	}
	return providerGroupFromMO(mo), true, nil
}

// ModifyProviderGroup updates properties of an existing provider group.
func (m *ProviderGroupManager) ModifyProviderGroup(ctx context.Context, name string, props map[string]string) (*LDAPProviderGroup, error) {
	const op = "ldap_provider_group_modify"

	dn := m.ProviderGroupDN(name)
	mo, err := m.session.QueryDN(ctx, dn)
	if err != nil {
		return nil, WrapError(op, err)
	}
	if mo == nil {
		return nil, NotFoundError(op, fmt.Sprintf("LDAP provider group %q does not exist", name), dn)
	}

	mo.MergeProps(props)

	if err := m.session.SetMO(ctx, mo); err != nil {
		return nil, WrapError(op, err)
	}
	if err := m.session.Commit(ctx); err != nil {
		return nil, WrapError(op, err)
	}

	return providerGroupFromMO(mo), nil
}

// DeleteProviderGroup removes an existing provider group.
func (m *ProviderGroupManager) DeleteProviderGroup(ctx context.Context, name string) error {
	const op = "ldap_provider_group_delete"

	dn := m.ProviderGroupDN(name)
	mo, err := m.session.QueryDN(ctx, dn)
	if err != nil {
		return WrapError(op, err)
	}
	if mo == nil {
		return NotFoundError(op, fmt.Sprintf("LDAP provider group %q does not exist", name), dn)
	}

	if err := m.session.RemoveMO(ctx, mo); err != nil {
		return WrapError(op, err)
	}
	if err := m.session.Commit(ctx); err != nil {
		return WrapError(op, err)
	}

	tflog.SubsystemInfo(ctx, "ucs", "Deleted LDAP provider group", map[string]any{
		"name": name,
		"dn":   dn,
	})

	return nil
}

// AddProviderRef adds a provider reference to a provider group. Both the
// group and the referenced provider definition must already exist.
func (m *ProviderGroupManager) AddProviderRef(ctx context.Context, req *AddProviderRefRequest) (*ProviderRef, error) {
	const op = "ldap_provider_group_provider_add"

	if err := defaults.Set(req); err != nil {
		return nil, WrapError(op, err)
	}

	groupDN := m.ProviderGroupDN(req.GroupName)
	group, err := m.session.QueryDN(ctx, groupDN)
	if err != nil {
		return nil, WrapError(op, err)
	}
	if group == nil {
		return nil, NotFoundError(op, fmt.Sprintf("LDAP provider group %q does not exist", req.GroupName), groupDN)
	}

	providerDN := m.providerDN(req.ProviderName)
	provider, err := m.session.QueryDN(ctx, providerDN)
	if err != nil {
		return nil, WrapError(op, err)
	}
	if provider == nil {
		return nil, NotFoundError(op, fmt.Sprintf("LDAP provider %q does not exist", req.ProviderName), providerDN)
	}

	mo := NewManagedObject(classProviderRef, m.ProviderRefDN(req.GroupName, req.ProviderName))
	mo.MergeProps(map[string]string{
		"name":  req.ProviderName,
		"order": req.Order,
		"descr": req.Descr,
	})
	mo.MergeProps(req.ExtraProps)

	if err := m.session.AddMO(ctx, mo, true); err != nil {
		return nil, WrapError(op, err)
	}
	if err := m.session.Commit(ctx); err != nil {
		return nil, WrapError(op, err)
	}

	tflog.SubsystemDebug(ctx, "ucs", "Added provider reference to group", map[string]any{
		"group":    req.GroupName,
		"provider": req.ProviderName,
		"order":    req.Order,
	})

	return providerRefFromMO(mo), nil
}

// GetProviderRef fetches a provider reference. Absence yields (nil, nil).
func (m *ProviderGroupManager) GetProviderRef(ctx context.Context, groupName, providerName string) (*ProviderRef, error) {
	mo, err := m.session.QueryDN(ctx, m.ProviderRefDN(groupName, providerName))
	if err != nil {
		return nil, WrapError("ldap_provider_group_provider_get", err)
	}
	if mo == nil {
		return nil, nil
	}
	return providerRefFromMO(mo), nil
}

// ProviderRefExists checks whether a provider reference exists and matches
// every expected property.
func (m *ProviderGroupManager) ProviderRefExists(ctx context.Context, groupName, providerName string, expected map[string]string) (*ProviderRef, bool, error) {
	mo, err := m.session.QueryDN(ctx, m.ProviderRefDN(groupName, providerName))
	if err != nil {
		return nil, false, WrapError("ldap_provider_group_provider_exists", err)
	}
	if mo == nil || !mo.MatchProps(expected) {
		return nil, false, nil
	}
	return providerRefFromMO(mo), true, nil
}

// ModifyProviderRef updates properties of an existing provider reference.
// Only the reference object is touched; the referenced provider is not
// re-validated.
func (m *ProviderGroupManager) ModifyProviderRef(ctx context.Context, groupName, providerName string, props map[string]string) (*ProviderRef, error) {
	const op = "ldap_provider_group_provider_modify"

	dn := m.ProviderRefDN(groupName, providerName)
	mo, err := m.session.QueryDN(ctx, dn)
	if err != nil {
		return nil, WrapError(op, err)
	}
	if mo == nil {
		return nil, NotFoundError(op, fmt.Sprintf("provider %q is not a member of LDAP provider group %q", providerName, groupName), dn)
	}

	mo.MergeProps(props)

	if err := m.session.SetMO(ctx, mo); err != nil {
		return nil, WrapError(op, err)
	}
	if err := m.session.Commit(ctx); err != nil {
		return nil, WrapError(op, err)
	}

	return providerRefFromMO(mo), nil
}

// RemoveProviderRef removes a provider reference from a provider group.
func (m *ProviderGroupManager) RemoveProviderRef(ctx context.Context, groupName, providerName string) error {
	const op = "ldap_provider_group_provider_remove"

	dn := m.ProviderRefDN(groupName, providerName)
	mo, err := m.session.QueryDN(ctx, dn)
	if err != nil {
		return WrapError(op, err)
	}
	if mo == nil {
		return NotFoundError(op, fmt.Sprintf("provider %q is not a member of LDAP provider group %q", providerName, groupName), dn)
	}

	if err := m.session.RemoveMO(ctx, mo); err != nil {
		return WrapError(op, err)
	}
	if err := m.session.Commit(ctx); err != nil {
		return WrapError(op, err)
	}

	return nil
}

func providerGroupFromMO(mo *ManagedObject) *LDAPProviderGroup {
	clone := mo.Clone()
	return &LDAPProviderGroup{
		DN:    clone.DN,
		Name:  clone.Prop("name"),
		Descr: clone.Prop("descr"),
		Props: clone.Props,
	}
}

func providerRefFromMO(mo *ManagedObject) *ProviderRef {
	clone := mo.Clone()
	return &ProviderRef{
		DN:    clone.DN,
		Name:  clone.Prop("name"),
		Order: clone.Prop("order"),
		Descr: clone.Prop("descr"),
		Props: clone.Props,
	}
}
