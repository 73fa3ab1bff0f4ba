package ucs

import (
	"context"
	"crypto/tls"
	"maps"
	"time"

	"github.com/creasty/defaults"
)

// ManagedObject is a single schema-typed configuration entity in the remote
// object tree, addressed by its DN. Properties are carried as opaque strings
// keyed by their XML attribute name; the remote system owns schema validation.
type ManagedObject struct {
	Class string            // XML API class identifier, e.g. "aaaLdapProvider"
	DN    string            // Hierarchical address of the object
	Props map[string]string // Attribute name/value pairs, excluding dn
}

// NewManagedObject creates a managed object with an initialized property map.
func NewManagedObject(class, dn string) *ManagedObject {
	return &ManagedObject{
		Class: class,
		DN:    dn,
		Props: make(map[string]string),
	}
}

// Prop returns the named property, or the empty string when unset.
func (mo *ManagedObject) Prop(name string) string {
	return mo.Props[name]
}

// SetProp sets a single property value.
func (mo *ManagedObject) SetProp(name, value string) {
	if mo.Props == nil {
		mo.Props = make(map[string]string)
	}
	mo.Props[name] = value
}

// MergeProps applies the supplied properties on top of the existing ones,
// later values overriding same-named fields.
func (mo *ManagedObject) MergeProps(props map[string]string) {
	if len(props) == 0 {
		return
	}
	if mo.Props == nil {
		mo.Props = make(map[string]string, len(props))
	}
	maps.Copy(mo.Props, props)
}

// MatchProps reports whether every expected property equals the object's
// actual value for that property.
func (mo *ManagedObject) MatchProps(expected map[string]string) bool {
	for name, want := range expected {
		if mo.Prop(name) != want {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the managed object.
func (mo *ManagedObject) Clone() *ManagedObject {
	clone := &ManagedObject{
		Class: mo.Class,
		DN:    mo.DN,
		Props: make(map[string]string, len(mo.Props)),
	}
	maps.Copy(clone.Props, mo.Props)
	return clone
}

// Session provides access to the remote managed-object tree. Mutations are
// staged and take effect only when Commit is called; QueryDN always reflects
// the committed remote state.
type Session interface {
	// QueryDN resolves a single managed object by DN. Absence is reported
	// as (nil, nil), not as an error.
	QueryDN(ctx context.Context, dn string) (*ManagedObject, error)

	// AddMO stages the creation of a managed object. With replace set, an
	// existing object at the same DN is overwritten on commit.
	AddMO(ctx context.Context, mo *ManagedObject, replace bool) error

	// SetMO stages a property update of an existing managed object.
	SetMO(ctx context.Context, mo *ManagedObject) error

	// RemoveMO stages the removal of a managed object.
	RemoveMO(ctx context.Context, mo *ManagedObject) error

	// Commit flushes all staged mutations in order as one transaction.
	// A commit with nothing staged is a no-op.
	Commit(ctx context.Context) error
}

// SessionConfig holds configuration for an XML API session.
type SessionConfig struct {
	// Connection settings
	Endpoint string        // Hostname or IP of the management endpoint
	Port     int           `default:"443"` // HTTPS port of the XML API
	Timeout  time.Duration `default:"30s"` // Per-request timeout

	// Authentication settings
	Username string // Account used for aaaLogin
	Password string // Password used for aaaLogin

	// Object tree settings
	DeviceProfile string `default:"default"` // Device profile owning the AAA subtree

	// TLS settings
	TLSConfig     *tls.Config // Custom TLS configuration
	SkipTLSVerify bool        // Disable certificate verification (not recommended)

	// Retry settings
	MaxRetries     int           `default:"3"`     // Maximum retry attempts
	InitialBackoff time.Duration `default:"500ms"` // Initial backoff duration
	MaxBackoff     time.Duration `default:"30s"`   // Maximum backoff duration
	BackoffFactor  float64       `default:"2.0"`   // Backoff multiplication factor
}

// DefaultSessionConfig returns a configuration populated with defaults.
func DefaultSessionConfig() *SessionConfig {
	config := &SessionConfig{}
	// Tag parsing cannot fail on a static struct.
	_ = defaults.Set(config)
	return config
}

// ApplyDefaults fills any zero-valued fields from the struct defaults.
func (c *SessionConfig) ApplyDefaults() error {
	return defaults.Set(c)
}

// BaseDN returns the device profile root under which all AAA configuration
// objects are addressed.
func (c *SessionConfig) BaseDN() string {
	profile := c.DeviceProfile
	if profile == "" {
		profile = "default"
	}
	return DeviceProfileDN(profile)
}

// RetryableError indicates an error that can be retried.
type RetryableError interface {
	error
	IsRetryable() bool
}

// ConnectionError represents transport-level errors talking to the XML API.
type ConnectionError struct {
	message   string
	retryable bool
	cause     error
}

func (e *ConnectionError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *ConnectionError) IsRetryable() bool {
	return e.retryable
}

func (e *ConnectionError) Unwrap() error {
	return e.cause
}

// NewConnectionError creates a new connection error.
func NewConnectionError(message string, retryable bool, cause error) *ConnectionError {
	return &ConnectionError{
		message:   message,
		retryable: retryable,
		cause:     cause,
	}
}
