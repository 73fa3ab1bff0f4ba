package ucs

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// dialerWithContext builds a dialer honoring both the probe timeout and any
// earlier deadline on the context.
func dialerWithContext(ctx context.Context, timeout time.Duration) *net.Dialer {
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	return &net.Dialer{
		Timeout:  timeout,
		Deadline: deadline,
	}
}

// ProbeProvider verifies that a configured LDAP provider endpoint is
// reachable before the configuration is relied upon for authentication.
// It dials the provider's host and port and, when a bind DN and key are
// configured, performs a simple bind with them. The managed configuration
// is not touched.
func ProbeProvider(ctx context.Context, provider *LDAPProvider) error {
	const op = "ldap_provider_probe"

	if provider == nil || provider.Name == "" {
		return NewOperationError(op, ErrorCategoryValidation, "provider with a name is required")
	}

	scheme := "ldap"
	if provider.EnableSSL == "yes" {
		scheme = "ldaps"
	}

	port := provider.Port
	if port == "" {
		port = "389"
	}

	timeout := 30 * time.Second
	if provider.Timeout != "" {
		if seconds, err := strconv.Atoi(provider.Timeout); err == nil && seconds > 0 {
			timeout = time.Duration(seconds) * time.Second
		}
	}

	url := fmt.Sprintf("%s://%s:%s", scheme, provider.Name, port)

	logger := NewTFLogger(ctx, "ucs")
	logger.Debug("Probing LDAP provider endpoint", map[string]any{
		"provider": provider.Name,
		"url":      url,
	})

	conn, err := ldap.DialURL(url, ldap.DialWithDialer(dialerWithContext(ctx, timeout)))
	if err != nil {
		return &OperationError{
			Operation: op,
			Category:  ErrorCategoryConnection,
			Reason:    fmt.Sprintf("LDAP endpoint %s is not reachable", url),
			Retryable: true,
			Cause:     err,
		}
	}
	defer conn.Close()

	conn.SetTimeout(timeout)

	if provider.RootDN != "" && provider.Key != "" {
		if err := conn.Bind(provider.RootDN, provider.Key); err != nil {
			return &OperationError{
				Operation: op,
				Category:  ErrorCategoryAuthentication,
				Reason:    fmt.Sprintf("bind as %q against %s failed", provider.RootDN, url),
				Cause:     err,
			}
		}
	}

	logger.Info("LDAP provider endpoint reachable", map[string]any{
		"provider": provider.Name,
		"url":      url,
	})

	return nil
}
