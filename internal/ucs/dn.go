package ucs

import (
	"fmt"
	"regexp"
	"strings"
)

// Relative name prefixes of the LDAP configuration subtree. DNs are plain
// slash-separated path segments; nothing is escaped or case-folded.
const (
	rnLDAPExt   = "ldap-ext"
	rnGroupRule = "ldap-group-rule"

	rnPrefixProvider      = "provider-"
	rnPrefixGroupMap      = "ldapgroup-"
	rnPrefixRole          = "role-"
	rnPrefixLocale        = "locale-"
	rnPrefixProviderGroup = "providergroup-"
	rnPrefixProviderRef   = "provider-ref-"
)

// objectNamePattern matches valid managed-object names: leading alphanumeric,
// then alphanumerics plus _ . : = , -, limited to 128 characters overall.
// Group map names are external LDAP group DNs, hence '=' and ','.
var objectNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.:=,-]{0,127}$`)

// DeviceProfileDN returns the root DN of a device profile.
func DeviceProfileDN(profile string) string {
	return "org-root/deviceprofile-" + profile
}

// BuildDN joins path segments into a DN, skipping empty segments.
func BuildDN(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment != "" {
			parts = append(parts, segment)
		}
	}
	return strings.Join(parts, "/")
}

// ParentDN returns the DN with its last segment removed, or the empty string
// when the DN has no parent.
func ParentDN(dn string) string {
	idx := strings.LastIndex(dn, "/")
	if idx < 0 {
		return ""
	}
	return dn[:idx]
}

// ValidateObjectName checks that a name is usable as a managed-object key.
func ValidateObjectName(name string) error {
	if name == "" {
		return NewOperationError("validate_name", ErrorCategoryValidation, "name must not be empty")
	}
	if !objectNamePattern.MatchString(name) {
		return NewOperationError("validate_name", ErrorCategoryValidation,
			fmt.Sprintf("invalid object name %q: must start with an alphanumeric and contain only alphanumerics, '_', '.', ':', '=', ',' or '-'", name))
	}
	return nil
}
