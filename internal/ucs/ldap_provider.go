package ucs

import (
	"context"
	"fmt"

	"github.com/creasty/defaults"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

const (
	classLDAPProvider  = "aaaLdapProvider"
	classLDAPGroupRule = "aaaLdapGroupRule"
)

// LDAPProvider represents one LDAP server endpoint configuration.
type LDAPProvider struct {
	DN        string
	Name      string
	Order     string
	RootDN    string
	BaseDN    string
	Port      string
	EnableSSL string
	Filter    string
	Attribute string
	Key       string
	Timeout   string
	Vendor    string
	Retries   string
	Descr     string
	Props     map[string]string // All raw properties as reported by the remote system
}

// LDAPGroupRule represents the group membership rule child of a provider.
type LDAPGroupRule struct {
	DN            string
	Authorization string
	Traversal     string
	TargetAttr    string
	Name          string
	Descr         string
	Props         map[string]string
}

// CreateProviderRequest carries the parameters for creating an LDAP provider.
// Zero-valued fields are filled from the declared defaults; ExtraProps are
// merged on top of the named fields, later values overriding earlier ones.
type CreateProviderRequest struct {
	Name      string
	Order     string `default:"lowest-available"`
	RootDN    string
	BaseDN    string
	Port      string `default:"389"`
	EnableSSL string `default:"no"`
	Filter    string
	Attribute string
	Key       string
	Timeout   string `default:"30"`
	Vendor    string `default:"OpenLdap"`
	Retries   string `default:"1"`
	Descr     string

	ExtraProps map[string]string
}

// ConfigureGroupRuleRequest carries the parameters for configuring the group
// membership rule of a provider.
type ConfigureGroupRuleRequest struct {
	Authorization string
	Traversal     string
	TargetAttr    string
	Name          string
	Descr         string

	ExtraProps map[string]string
}

// LDAPProviderManager handles LDAP provider operations against the remote tree.
type LDAPProviderManager struct {
	session Session
	baseDN  string
}

// NewLDAPProviderManager creates a provider manager rooted at the given
// device profile DN.
func NewLDAPProviderManager(session Session, baseDN string) *LDAPProviderManager {
	return &LDAPProviderManager{
		session: session,
		baseDN:  baseDN,
	}
}

// ExtDN returns the DN of the ldap-ext container all providers live under.
func (m *LDAPProviderManager) ExtDN() string {
	return BuildDN(m.baseDN, rnLDAPExt)
}

// ProviderDN returns the DN of the named provider.
func (m *LDAPProviderManager) ProviderDN(name string) string {
	return BuildDN(m.baseDN, rnLDAPExt, rnPrefixProvider+name)
}

// GroupRuleDN returns the DN of the group rule child of the named provider.
func (m *LDAPProviderManager) GroupRuleDN(providerName string) string {
	return BuildDN(m.ProviderDN(providerName), rnGroupRule)
}

// CreateProvider creates an LDAP provider under the ldap-ext container.
// An existing provider with the same name is overwritten.
func (m *LDAPProviderManager) CreateProvider(ctx context.Context, req *CreateProviderRequest) (*LDAPProvider, error) {
	const op = "ldap_provider_create"

	if err := defaults.Set(req); err != nil {
		return nil, WrapError(op, err)
	}
	if err := ValidateObjectName(req.Name); err != nil {
		return nil, WrapError(op, err)
	}

	extDN := m.ExtDN()
	parent, err := m.session.QueryDN(ctx, extDN)
	if err != nil {
		return nil, WrapError(op, err)
	}
	if parent == nil {
		return nil, NotFoundError(op, "LDAP configuration container does not exist", extDN)
	}

	mo := NewManagedObject(classLDAPProvider, m.ProviderDN(req.Name))
	mo.MergeProps(map[string]string{
		"name":      req.Name,
		"order":     req.Order,
		"rootdn":    req.RootDN,
		"basedn":    req.BaseDN,
		"port":      req.Port,
		"enableSSL": req.EnableSSL,
		"filter":    req.Filter,
		"attribute": req.Attribute,
		"key":       req.Key,
		"timeout":   req.Timeout,
		"vendor":    req.Vendor,
		"retries":   req.Retries,
		"descr":     req.Descr,
	})
	mo.MergeProps(req.ExtraProps)

	if err := m.session.AddMO(ctx, mo, true); err != nil {
		return nil, WrapError(op, err)
	}
	if err := m.session.Commit(ctx); err != nil {
		return nil, WrapError(op, err)
	}

	tflog.SubsystemInfo(ctx, "ucs", "Created LDAP provider", map[string]any{
		"name": req.Name,
		"dn":   mo.DN,
	})

	return providerFromMO(mo), nil
}

// GetProvider fetches the named provider. Absence yields (nil, nil).
func (m *LDAPProviderManager) GetProvider(ctx context.Context, name string) (*LDAPProvider, error) {
	mo, err := m.session.QueryDN(ctx, m.ProviderDN(name))
	if err != nil {
		return nil, WrapError("ldap_provider_get", err)
	}
	if mo == nil {
		return nil, nil
	}
	return providerFromMO(mo), nil
}

// ProviderExists checks whether the named provider exists and matches every
// expected property. The provider is returned only when all comparisons hold.
func (m *LDAPProviderManager) ProviderExists(ctx context.Context, name string, expected map[string]string) (*LDAPProvider, bool, error) {
	mo, err := m.session.QueryDN(ctx, m.ProviderDN(name))
	if err != nil {
		return nil, false, WrapError("ldap_provider_exists", err)
	}
	if mo == nil || !mo.MatchProps(expected) {
		return nil, false, nil
	}
	return providerFromMO(mo), true, nil
}

// ModifyProvider updates properties of an existing provider.
func (m *LDAPProviderManager) ModifyProvider(ctx context.Context, name string, props map[string]string) (*LDAPProvider, error) {
	const op = "ldap_provider_modify"

	dn := m.ProviderDN(name)
	mo, err := m.session.QueryDN(ctx, dn)
	if err != nil {
		return nil, WrapError(op, err)
	}
	if mo == nil {
		return nil, NotFoundError(op, fmt.Sprintf("LDAP provider %q does not exist", name), dn)
	}

	mo.MergeProps(props)

	if err := m.session.SetMO(ctx, mo); err != nil {
		return nil, WrapError(op, err)
	}
	if err := m.session.Commit(ctx); err != nil {
		return nil, WrapError(op, err)
	}

	tflog.SubsystemInfo(ctx, "ucs", "Modified LDAP provider", map[string]any{
		"name": name,
		"dn":   dn,
	})

	return providerFromMO(mo), nil
}

// DeleteProvider removes an existing provider.
func (m *LDAPProviderManager) DeleteProvider(ctx context.Context, name string) error {
	const op = "ldap_provider_delete"

	dn := m.ProviderDN(name)
	mo, err := m.session.QueryDN(ctx, dn)
	if err != nil {
		return WrapError(op, err)
	}
	if mo == nil {
		return NotFoundError(op, fmt.Sprintf("LDAP provider %q does not exist", name), dn)
	}

	if err := m.session.RemoveMO(ctx, mo); err != nil {
		return WrapError(op, err)
	}
	if err := m.session.Commit(ctx); err != nil {
		return WrapError(op, err)
	}

	tflog.SubsystemInfo(ctx, "ucs", "Deleted LDAP provider", map[string]any{
		"name": name,
		"dn":   dn,
	})

	return nil
}

// ConfigureGroupRule writes the group membership rule of a provider. The rule
// child is unkeyed, so the write overwrites any existing rule without reading
// it first.
func (m *LDAPProviderManager) ConfigureGroupRule(ctx context.Context, providerName string, req *ConfigureGroupRuleRequest) (*LDAPGroupRule, error) {
	const op = "ldap_group_rules_configure"

	providerDN := m.ProviderDN(providerName)
	provider, err := m.session.QueryDN(ctx, providerDN)
	if err != nil {
		return nil, WrapError(op, err)
	}
	if provider == nil {
		return nil, NotFoundError(op, fmt.Sprintf("LDAP provider %q does not exist", providerName), providerDN)
	}

	mo := NewManagedObject(classLDAPGroupRule, m.GroupRuleDN(providerName))
	mo.MergeProps(map[string]string{
		"authorization": req.Authorization,
		"traversal":     req.Traversal,
		"targetAttr":    req.TargetAttr,
		"name":          req.Name,
		"descr":         req.Descr,
	})
	mo.MergeProps(req.ExtraProps)

	if err := m.session.AddMO(ctx, mo, true); err != nil {
		return nil, WrapError(op, err)
	}
	if err := m.session.Commit(ctx); err != nil {
		return nil, WrapError(op, err)
	}

	tflog.SubsystemInfo(ctx, "ucs", "Configured LDAP group rule", map[string]any{
		"provider": providerName,
		"dn":       mo.DN,
	})

	return groupRuleFromMO(mo), nil
}

// RemoveGroupRule deletes the group rule child of a provider.
func (m *LDAPProviderManager) RemoveGroupRule(ctx context.Context, providerName string) error {
	const op = "ldap_group_rules_remove"

	dn := m.GroupRuleDN(providerName)
	mo, err := m.session.QueryDN(ctx, dn)
	if err != nil {
		return WrapError(op, err)
	}
	if mo == nil {
		return NotFoundError(op, fmt.Sprintf("LDAP provider %q has no group rule", providerName), dn)
	}

	if err := m.session.RemoveMO(ctx, mo); err != nil {
		return WrapError(op, err)
	}
	if err := m.session.Commit(ctx); err != nil {
		return WrapError(op, err)
	}

	tflog.SubsystemInfo(ctx, "ucs", "Removed LDAP group rule", map[string]any{
		"provider": providerName,
		"dn":       dn,
	})

	return nil
}

// GetGroupRule fetches the group rule of a provider. Absence yields (nil, nil).
func (m *LDAPProviderManager) GetGroupRule(ctx context.Context, providerName string) (*LDAPGroupRule, error) {
	mo, err := m.session.QueryDN(ctx, m.GroupRuleDN(providerName))
	if err != nil {
		return nil, WrapError("ldap_group_rules_get", err)
	}
	if mo == nil {
		return nil, nil
	}
	return groupRuleFromMO(mo), nil
}

func providerFromMO(mo *ManagedObject) *LDAPProvider {
	clone := mo.Clone()
	return &LDAPProvider{
		DN:        clone.DN,
		Name:      clone.Prop("name"),
		Order:     clone.Prop("order"),
		RootDN:    clone.Prop("rootdn"),
		BaseDN:    clone.Prop("basedn"),
		Port:      clone.Prop("port"),
		EnableSSL: clone.Prop("enableSSL"),
		Filter:    clone.Prop("filter"),
		Attribute: clone.Prop("attribute"),
		Key:       clone.Prop("key"),
		Timeout:   clone.Prop("timeout"),
		Vendor:    clone.Prop("vendor"),
		Retries:   clone.Prop("retries"),
		Descr:     clone.Prop("descr"),
		Props:     clone.Props,
	}
}

func groupRuleFromMO(mo *ManagedObject) *LDAPGroupRule {
	clone := mo.Clone()
	return &LDAPGroupRule{
		DN:            clone.DN,
		Authorization: clone.Prop("authorization"),
		Traversal:     clone.Prop("traversal"),
		TargetAttr:    clone.Prop("targetAttr"),
		Name:          clone.Prop("name"),
		Descr:         clone.Prop("descr"),
		Props:         clone.Props,
	}
}
