package ucs

import (
	"context"
)

const classLocale = "aaaLocale"

// Locale represents an entry in the externally owned locale registry.
type Locale struct {
	DN    string
	Name  string
	Descr string
	Props map[string]string
}

// LocaleManager resolves entries of the locale registry. The registry itself
// is owned by the remote system; this manager only reads it so that locale
// mappings can be cross-validated.
type LocaleManager struct {
	session Session
	baseDN  string
}

// NewLocaleManager creates a locale manager rooted at the given device
// profile DN.
func NewLocaleManager(session Session, baseDN string) *LocaleManager {
	return &LocaleManager{
		session: session,
		baseDN:  baseDN,
	}
}

// LocaleDN returns the DN of the named locale registry entry.
func (m *LocaleManager) LocaleDN(name string) string {
	return BuildDN(m.baseDN, rnPrefixLocale+name)
}

// GetLocale fetches the named locale. Absence yields (nil, nil).
func (m *LocaleManager) GetLocale(ctx context.Context, name string) (*Locale, error) {
	mo, err := m.session.QueryDN(ctx, m.LocaleDN(name))
	if err != nil {
		return nil, WrapError("locale_get", err)
	}
	if mo == nil {
		return nil, nil
	}
	return localeFromMO(mo), nil
}

// LocaleExists checks whether the named locale exists and matches every
// expected property. This is the single validation primitive used by all
// locale cross-references.
func (m *LocaleManager) LocaleExists(ctx context.Context, name string, expected map[string]string) (*Locale, bool, error) {
	mo, err := m.session.QueryDN(ctx, m.LocaleDN(name))
	if err != nil {
		return nil, false, WrapError("locale_exists", err)
	}
	if mo == nil || !mo.MatchProps(expected) {
		return nil, false, nil
	}
	return localeFromMO(mo), true, nil
}

func localeFromMO(mo *ManagedObject) *Locale {
	clone := mo.Clone()
	return &Locale{
		DN:    clone.DN,
		Name:  clone.Prop("name"),
		Descr: clone.Prop("descr"),
		Props: clone.Props,
	}
}
