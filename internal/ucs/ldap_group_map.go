package ucs

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-log/tflog"
)

const (
	classLDAPGroupMap = "aaaLdapGroup"
	classRoleRef      = "aaaUserRole"
	classLocaleRef    = "aaaUserLocale"
)

// LDAPGroupMap maps an external LDAP group onto local role and locale
// assignments.
type LDAPGroupMap struct {
	DN    string
	Name  string
	Descr string
	Props map[string]string
}

// RoleRef is a role assignment child of a group map.
type RoleRef struct {
	DN    string
	Name  string
	Descr string
	Props map[string]string
}

// LocaleRef is a locale assignment child of a group map. The referenced
// locale must exist in the locale registry.
type LocaleRef struct {
	DN    string
	Name  string
	Descr string
	Props map[string]string
}

// CreateGroupMapRequest carries the parameters for creating a group map.
type CreateGroupMapRequest struct {
	Name  string
	Descr string

	ExtraProps map[string]string
}

// GroupMapManager handles group map operations including role and locale
// assignment children.
type GroupMapManager struct {
	session Session
	baseDN  string
	locales *LocaleManager
}

// NewGroupMapManager creates a group map manager rooted at the given device
// profile DN. The locale manager is used to cross-validate locale assignments.
func NewGroupMapManager(session Session, baseDN string, locales *LocaleManager) *GroupMapManager {
	return &GroupMapManager{
		session: session,
		baseDN:  baseDN,
		locales: locales,
	}
}

// GroupMapDN returns the DN of the named group map.
func (m *GroupMapManager) GroupMapDN(name string) string {
	return BuildDN(m.baseDN, rnLDAPExt, rnPrefixGroupMap+name)
}

// RoleRefDN returns the DN of a role assignment under the named group map.
func (m *GroupMapManager) RoleRefDN(groupMapName, roleName string) string {
	return BuildDN(m.GroupMapDN(groupMapName), rnPrefixRole+roleName)
}

// LocaleRefDN returns the DN of a locale assignment under the named group map.
func (m *GroupMapManager) LocaleRefDN(groupMapName, localeName string) string {
	return BuildDN(m.GroupMapDN(groupMapName), rnPrefixLocale+localeName)
}

// CreateGroupMap creates a group map. An existing map with the same name is
// overwritten.
func (m *GroupMapManager) CreateGroupMap(ctx context.Context, req *CreateGroupMapRequest) (*LDAPGroupMap, error) {
	const op = "ldap_group_map_create"

	if err := ValidateObjectName(req.Name); err != nil {
		return nil, WrapError(op, err)
	}

	mo := NewManagedObject(classLDAPGroupMap, m.GroupMapDN(req.Name))
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

	tflog.SubsystemInfo(ctx, "ucs", "Created LDAP group map", map[string]any{
		"name": req.Name,
		"dn":   mo.DN,
	})

	return groupMapFromMO(mo), nil
}

// GetGroupMap fetches the named group map. Absence yields (nil, nil).
func (m *GroupMapManager) GetGroupMap(ctx context.Context, name string) (*LDAPGroupMap, error) {
	mo, err := m.session.QueryDN(ctx, m.GroupMapDN(name))
	if err != nil {
		return nil, WrapError("ldap_group_map_get", err)
	}
	if mo == nil {
		return nil, nil
	}
	return groupMapFromMO(mo), nil
}

// GroupMapExists checks whether the named group map exists and matches every
// expected property.
func (m *GroupMapManager) GroupMapExists(ctx context.Context, name string, expected map[string]string) (*LDAPGroupMap, bool, error) {
	mo, err := m.session.QueryDN(ctx, m.GroupMapDN(name))
	if err != nil {
		return nil, false, WrapError("ldap_group_map_exists", err)
	}
	if mo == nil || !mo.MatchProps(expected) {
		return nil, false, nil
	}
	return groupMapFromMO(mo), true, nil
}

// ModifyGroupMap updates properties of an existing group map.
func (m *GroupMapManager) ModifyGroupMap(ctx context.Context, name string, props map[string]string) (*LDAPGroupMap, error) {
	const op = "ldap_group_map_modify"

	dn := m.GroupMapDN(name)
	mo, err := m.session.QueryDN(ctx, dn)
	if err != nil {
		return nil, WrapError(op, err)
	}
	if mo == nil {
		return nil, NotFoundError(op, fmt.Sprintf("LDAP group map %q does not exist", name), dn)
	}

	mo.MergeProps(props)

	if err := m.session.SetMO(ctx, mo); err != nil {
		return nil, WrapError(op, err)
	}
	if err := m.session.Commit(ctx); err != nil {
		return nil, WrapError(op, err)
	}

	return groupMapFromMO(mo), nil
}

// DeleteGroupMap removes an existing group map.
func (m *GroupMapManager) DeleteGroupMap(ctx context.Context, name string) error {
	const op = "ldap_group_map_delete"

	dn := m.GroupMapDN(name)
	mo, err := m.session.QueryDN(ctx, dn)
	if err != nil {
		return WrapError(op, err)
	}
	if mo == nil {
		return NotFoundError(op, fmt.Sprintf("LDAP group map %q does not exist", name), dn)
	}

	if err := m.session.RemoveMO(ctx, mo); err != nil {
		return WrapError(op, err)
	}
	if err := m.session.Commit(ctx); err != nil {
		return WrapError(op, err)
	}

	tflog.SubsystemInfo(ctx, "ucs", "Deleted LDAP group map", map[string]any{
		"name": name,
		"dn":   dn,
	})

	return nil
}

// AddRole assigns a role to a group map. The group map must already exist.
func (m *GroupMapManager) AddRole(ctx context.Context, groupMapName, roleName, descr string) (*RoleRef, error) {
	const op = "ldap_group_map_role_add"

	mapDN := m.GroupMapDN(groupMapName)
	groupMap, err := m.session.QueryDN(ctx, mapDN)
	if err != nil {
		return nil, WrapError(op, err)
	}
	if groupMap == nil {
		return nil, NotFoundError(op, fmt.Sprintf("LDAP group map %q does not exist", groupMapName), mapDN)
	}

	mo := NewManagedObject(classRoleRef, m.RoleRefDN(groupMapName, roleName))
	mo.MergeProps(map[string]string{
		"name":  roleName,
		"descr": descr,
	})

	if err := m.session.AddMO(ctx, mo, true); err != nil {
		return nil, WrapError(op, err)
	}
	if err := m.session.Commit(ctx); err != nil {
		return nil, WrapError(op, err)
	}

	tflog.SubsystemDebug(ctx, "ucs", "Added role to LDAP group map", map[string]any{
		"group_map": groupMapName,
		"role":      roleName,
	})

	return roleRefFromMO(mo), nil
}

// GetRole fetches a role assignment. Absence yields (nil, nil).
func (m *GroupMapManager) GetRole(ctx context.Context, groupMapName, roleName string) (*RoleRef, error) {
	mo, err := m.session.QueryDN(ctx, m.RoleRefDN(groupMapName, roleName))
	if err != nil {
		return nil, WrapError("ldap_group_map_role_get", err)
	}
	if mo == nil {
		return nil, nil
	}
	return roleRefFromMO(mo), nil
}

// RoleExists checks whether a role assignment exists and matches every
// expected property.
func (m *GroupMapManager) RoleExists(ctx context.Context, groupMapName, roleName string, expected map[string]string) (*RoleRef, bool, error) {
	mo, err := m.session.QueryDN(ctx, m.RoleRefDN(groupMapName, roleName))
	if err != nil {
		return nil, false, WrapError("ldap_group_map_role_exists", err)
	}
	if mo == nil || !mo.MatchProps(expected) {
		return nil, false, nil
	}
	return roleRefFromMO(mo), true, nil
}

// RemoveRole removes a role assignment from a group map.
func (m *GroupMapManager) RemoveRole(ctx context.Context, groupMapName, roleName string) error {
	const op = "ldap_group_map_role_remove"

	dn := m.RoleRefDN(groupMapName, roleName)
	mo, err := m.session.QueryDN(ctx, dn)
	if err != nil {
		return WrapError(op, err)
	}
	if mo == nil {
		return NotFoundError(op, fmt.Sprintf("role %q is not mapped in LDAP group map %q", roleName, groupMapName), dn)
	}

	if err := m.session.RemoveMO(ctx, mo); err != nil {
		return WrapError(op, err)
	}
	if err := m.session.Commit(ctx); err != nil {
		return WrapError(op, err)
	}

	return nil
}

// AddLocale assigns a locale to a group map. Both the group map and the
// referenced locale registry entry must already exist.
func (m *GroupMapManager) AddLocale(ctx context.Context, groupMapName, localeName, descr string) (*LocaleRef, error) {
	const op = "ldap_group_map_locale_add"

	mapDN := m.GroupMapDN(groupMapName)
	groupMap, err := m.session.QueryDN(ctx, mapDN)
	if err != nil {
		return nil, WrapError(op, err)
	}
	if groupMap == nil {
		return nil, NotFoundError(op, fmt.Sprintf("LDAP group map %q does not exist", groupMapName), mapDN)
	}

	_, found, err := m.locales.LocaleExists(ctx, localeName, nil)
	if err != nil {
		return nil, WrapError(op, err)
	}
	if !found {
		return nil, NotFoundError(op, fmt.Sprintf("locale %q does not exist", localeName), m.locales.LocaleDN(localeName))
	}

	mo := NewManagedObject(classLocaleRef, m.LocaleRefDN(groupMapName, localeName))
	mo.MergeProps(map[string]string{
		"name":  localeName,
		"descr": descr,
	})

	if err := m.session.AddMO(ctx, mo, true); err != nil {
		return nil, WrapError(op, err)
	}
	if err := m.session.Commit(ctx); err != nil {
		return nil, WrapError(op, err)
	}

	tflog.SubsystemDebug(ctx, "ucs", "Added locale to LDAP group map", map[string]any{
		"group_map": groupMapName,
		"locale":    localeName,
	})

	return localeRefFromMO(mo), nil
}

// GetLocaleRef fetches a locale assignment. Absence yields (nil, nil).
func (m *GroupMapManager) GetLocaleRef(ctx context.Context, groupMapName, localeName string) (*LocaleRef, error) {
	mo, err := m.session.QueryDN(ctx, m.LocaleRefDN(groupMapName, localeName))
	if err != nil {
		return nil, WrapError("ldap_group_map_locale_get", err)
	}
	if mo == nil {
		return nil, nil
	}
	return localeRefFromMO(mo), nil
}

// LocaleRefExists checks whether a locale assignment exists and matches every
// expected property.
func (m *GroupMapManager) LocaleRefExists(ctx context.Context, groupMapName, localeName string, expected map[string]string) (*LocaleRef, bool, error) {
	mo, err := m.session.QueryDN(ctx, m.LocaleRefDN(groupMapName, localeName))
	if err != nil {
		return nil, false, WrapError("ldap_group_map_locale_exists", err)
	}
	if mo == nil || !mo.MatchProps(expected) {
		return nil, false, nil
	}
	return localeRefFromMO(mo), true, nil
}

// RemoveLocale removes a locale assignment from a group map. The underlying
// locale registry entry is re-validated; removal fails when the locale itself
// has been deleted even if the assignment still exists.
func (m *GroupMapManager) RemoveLocale(ctx context.Context, groupMapName, localeName string) error {
	const op = "ldap_group_map_locale_remove"

	dn := m.LocaleRefDN(groupMapName, localeName)
	mo, err := m.session.QueryDN(ctx, dn)
	if err != nil {
		return WrapError(op, err)
	}
	if mo == nil {
		return NotFoundError(op, fmt.Sprintf("locale %q is not mapped in LDAP group map %q", localeName, groupMapName), dn)
	}

	_, found, err := m.locales.LocaleExists(ctx, localeName, nil)
	if err != nil {
		return WrapError(op, err)
	}
	if !found {
		return NotFoundError(op, fmt.Sprintf("locale %q does not exist", localeName), m.locales.LocaleDN(localeName))
	}

	if err := m.session.RemoveMO(ctx, mo); err != nil {
		return WrapError(op, err)
	}
	if err := m.session.Commit(ctx); err != nil {
		return WrapError(op, err)
	}

	return nil
}

func groupMapFromMO(mo *ManagedObject) *LDAPGroupMap {
	clone := mo.Clone()
	return &LDAPGroupMap{
		DN:    clone.DN,
		Name:  clone.Prop("name"),
		Descr: clone.Prop("descr"),
		Props: clone.Props,
	}
}

func roleRefFromMO(mo *ManagedObject) *RoleRef {
	clone := mo.Clone()
	return &RoleRef{
		DN:    clone.DN,
		Name:  clone.Prop("name"),
		Descr: clone.Prop("descr"),
		Props: clone.Props,
	}
}

func localeRefFromMO(mo *ManagedObject) *LocaleRef {
	clone := mo.Clone()
	return &LocaleRef{
		DN:    clone.DN,
		Name:  clone.Prop("name"),
		Descr: clone.Prop("descr"),
		Props: clone.Props,
	}
}
