package ucs

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

const (
	apiPath = "/xmlIM"

	// Remote error code signalling an expired or invalid session cookie.
	errCodeSessionExpired = "552"

	statusCreated         = "created"
	statusCreatedModified = "created,modified"
	statusModified        = "modified"
	statusDeleted         = "deleted"
)

// stagedChange is a buffered mutation awaiting Commit.
type stagedChange struct {
	mo     *ManagedObject
	status string
}

// APISession implements Session over the UCS Central XML API. Mutations are
// staged locally and flushed as a single configConfMos request on Commit,
// mirroring the transaction model of the management endpoint.
type APISession struct {
	config     *SessionConfig
	httpClient *http.Client
	baseURL    string

	mu     sync.Mutex
	cookie string
	staged []stagedChange
}

// Ensure APISession satisfies the Session interface.
var _ Session = (*APISession)(nil)

// NewSession creates a new XML API session from the given configuration.
func NewSession(config *SessionConfig) (*APISession, error) {
	return NewSessionWithContext(context.Background(), config)
}

// NewSessionWithContext creates a new XML API session, logging through the
// provided context. The session is not authenticated until Login is called.
func NewSessionWithContext(ctx context.Context, config *SessionConfig) (*APISession, error) {
	if config == nil {
		return nil, NewOperationError("session_create", ErrorCategoryValidation, "session configuration is required")
	}
	if config.Endpoint == "" {
		return nil, NewOperationError("session_create", ErrorCategoryValidation, "endpoint must be configured")
	}
	if err := config.ApplyDefaults(); err != nil {
		return nil, WrapError("session_create", err)
	}

	tlsConfig := config.TLSConfig
	if tlsConfig == nil {
		tlsConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: config.SkipTLSVerify,
		}
	}

	session := &APISession{
		config:  config,
		baseURL: fmt.Sprintf("https://%s:%d%s", config.Endpoint, config.Port, apiPath),
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: tlsConfig,
			},
		},
	}

	tflog.SubsystemDebug(ctx, "ucs", "Created XML API session", map[string]any{
		"endpoint":       config.Endpoint,
		"port":           config.Port,
		"device_profile": config.DeviceProfile,
	})

	return session, nil
}

// Login authenticates the session and stores the authentication cookie.
func (s *APISession) Login(ctx context.Context) error {
	body := xmlElement("aaaLogin", map[string]string{
		"inName":     s.config.Username,
		"inPassword": s.config.Password,
	}, "")

	resp, err := s.post(ctx, "aaaLogin", body)
	if err != nil {
		return WrapError("session_login", err)
	}
	if resp.OutCookie == "" {
		return NewOperationError("session_login", ErrorCategoryAuthentication, "login response carried no session cookie")
	}

	s.mu.Lock()
	s.cookie = resp.OutCookie
	s.mu.Unlock()

	tflog.SubsystemInfo(ctx, "ucs", "Session authenticated", map[string]any{
		"endpoint": s.config.Endpoint,
		"username": s.config.Username,
	})

	return nil
}

// Refresh renews the authentication cookie without a full re-login.
func (s *APISession) Refresh(ctx context.Context) error {
	body := xmlElement("aaaRefresh", map[string]string{
		"inName":     s.config.Username,
		"inPassword": s.config.Password,
		"inCookie":   s.currentCookie(),
	}, "")

	resp, err := s.post(ctx, "aaaRefresh", body)
	if err != nil {
		return WrapError("session_refresh", err)
	}
	if resp.OutCookie != "" {
		s.mu.Lock()
		s.cookie = resp.OutCookie
		s.mu.Unlock()
	}

	return nil
}

// Logout terminates the remote session. The session cannot be reused afterwards.
func (s *APISession) Logout(ctx context.Context) error {
	cookie := s.currentCookie()
	if cookie == "" {
		return nil
	}

	body := xmlElement("aaaLogout", map[string]string{"inCookie": cookie}, "")
	_, err := s.post(ctx, "aaaLogout", body)

	s.mu.Lock()
	s.cookie = ""
	s.mu.Unlock()

	if err != nil {
		return WrapError("session_logout", err)
	}
	return nil
}

// Ping verifies that the session can resolve the object tree root.
func (s *APISession) Ping(ctx context.Context) error {
	mo, err := s.QueryDN(ctx, "org-root")
	if err != nil {
		return WrapError("session_ping", err)
	}
	if mo == nil {
		return NewOperationError("session_ping", ErrorCategoryServer, "object tree root could not be resolved")
	}
	return nil
}

// QueryDN resolves a single managed object by DN. Absence yields (nil, nil).
func (s *APISession) QueryDN(ctx context.Context, dn string) (*ManagedObject, error) {
	body := xmlElement("configResolveDn", map[string]string{
		"cookie":         s.currentCookie(),
		"dn":             dn,
		"inHierarchical": "false",
	}, "")

	var resp *apiResponse
	err := s.withRetry(ctx, "configResolveDn", func() error {
		var reqErr error
		resp, reqErr = s.post(ctx, "configResolveDn", body)
		return reqErr
	})
	if err != nil {
		return nil, WrapError("query_dn", err)
	}

	if len(resp.OutConfig.Elements) == 0 {
		tflog.SubsystemTrace(ctx, "ucs", "DN did not resolve", map[string]any{"dn": dn})
		return nil, nil
	}

	return resp.OutConfig.Elements[0].toManagedObject(), nil
}

// AddMO stages the creation of a managed object. With replace set, an
// existing object at the same DN is overwritten when the stage is committed.
func (s *APISession) AddMO(ctx context.Context, mo *ManagedObject, replace bool) error {
	if mo == nil || mo.DN == "" {
		return NewOperationError("add_mo", ErrorCategoryValidation, "managed object with a DN is required")
	}

	status := statusCreated
	if replace {
		status = statusCreatedModified
	}
	s.stage(mo, status)

	tflog.SubsystemDebug(ctx, "ucs", "Staged managed object add", map[string]any{
		"dn":      mo.DN,
		"class":   mo.Class,
		"replace": replace,
	})
	return nil
}

// SetMO stages a property update of an existing managed object.
func (s *APISession) SetMO(ctx context.Context, mo *ManagedObject) error {
	if mo == nil || mo.DN == "" {
		return NewOperationError("set_mo", ErrorCategoryValidation, "managed object with a DN is required")
	}
	s.stage(mo, statusModified)

	tflog.SubsystemDebug(ctx, "ucs", "Staged managed object set", map[string]any{
		"dn":    mo.DN,
		"class": mo.Class,
	})
	return nil
}

// RemoveMO stages the removal of a managed object.
func (s *APISession) RemoveMO(ctx context.Context, mo *ManagedObject) error {
	if mo == nil || mo.DN == "" {
		return NewOperationError("remove_mo", ErrorCategoryValidation, "managed object with a DN is required")
	}
	s.stage(mo, statusDeleted)

	tflog.SubsystemDebug(ctx, "ucs", "Staged managed object remove", map[string]any{
		"dn":    mo.DN,
		"class": mo.Class,
	})
	return nil
}

// Commit flushes all staged mutations in order as one configConfMos request.
// The stage is cleared on success and preserved on failure.
func (s *APISession) Commit(ctx context.Context) error {
	s.mu.Lock()
	staged := s.staged
	s.mu.Unlock()

	if len(staged) == 0 {
		return nil
	}

	var pairs strings.Builder
	for _, change := range staged {
		pairs.WriteString(xmlElement("pair", map[string]string{"key": change.mo.DN},
			moXML(change.mo, change.status)))
	}

	body := xmlElement("configConfMos", map[string]string{
		"cookie":         s.currentCookie(),
		"inHierarchical": "false",
	}, xmlElement("inConfigs", nil, pairs.String()))

	err := LogOperation(ctx, "ucs", "configConfMos", map[string]any{"count": len(staged)}, func() error {
		return s.withRetry(ctx, "configConfMos", func() error {
			_, reqErr := s.post(ctx, "configConfMos", body)
			return reqErr
		})
	})
	if err != nil {
		return WrapError("commit", err)
	}

	s.mu.Lock()
	s.staged = nil
	s.mu.Unlock()

	return nil
}

// stage appends a buffered mutation.
func (s *APISession) stage(mo *ManagedObject, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = append(s.staged, stagedChange{mo: mo.Clone(), status: status})
}

// StagedCount returns the number of mutations awaiting commit.
func (s *APISession) StagedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.staged)
}

func (s *APISession) currentCookie() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cookie
}

// withRetry executes fn with exponential backoff on retryable failures.
func (s *APISession) withRetry(ctx context.Context, operation string, fn func() error) error {
	backoff := s.config.InitialBackoff
	var lastErr error

	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			tflog.SubsystemDebug(ctx, "ucs", "Retrying operation", map[string]any{
				"operation":  operation,
				"attempt":    attempt,
				"backoff_ms": backoff.Milliseconds(),
				"last_error": lastErr.Error(),
			})

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}

			backoff = time.Duration(float64(backoff) * s.config.BackoffFactor)
			if backoff > s.config.MaxBackoff {
				backoff = s.config.MaxBackoff
			}
		}

		lastErr = fn()
		if lastErr == nil || !IsRetryableError(lastErr) {
			return lastErr
		}
	}

	return lastErr
}

// post sends a single XML API request and decodes the response envelope.
// An expired session cookie triggers one transparent re-login.
func (s *APISession) post(ctx context.Context, operation, body string) (*apiResponse, error) {
	resp, err := s.doRequest(ctx, operation, body)
	if err != nil {
		return nil, err
	}

	if resp.ErrorCode == errCodeSessionExpired && operation != "aaaLogin" && operation != "aaaLogout" {
		tflog.SubsystemInfo(ctx, "ucs", "Session expired, re-authenticating", map[string]any{
			"operation": operation,
		})
		if loginErr := s.Login(ctx); loginErr != nil {
			return nil, loginErr
		}
		// The request body embeds the old cookie; rebuild it with the new one.
		body = replaceCookie(body, s.currentCookie())
		resp, err = s.doRequest(ctx, operation, body)
		if err != nil {
			return nil, err
		}
	}

	if resp.ErrorCode != "" {
		return nil, &OperationError{
			Operation: operation,
			Category:  categorizeAPIError(resp.ErrorCode),
			Reason:    resp.ErrorDescr,
			ErrorCode: resp.ErrorCode,
		}
	}

	return resp, nil
}

func (s *APISession) doRequest(ctx context.Context, operation, body string) (*apiResponse, error) {
	requestID := uuid.New().String()

	// Request bodies carry credentials and session cookies.
	tflog.SubsystemTrace(ctx, "ucs", "Sending XML API request", SanitizeFields(map[string]any{
		"operation":  operation,
		"request_id": requestID,
		"endpoint":   s.config.Endpoint,
		"body":       body,
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, strings.NewReader(body))
	if err != nil {
		return nil, NewConnectionError("failed to build request", false, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	httpResp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, NewConnectionError("request failed", true, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= 500 {
		return nil, NewConnectionError(
			fmt.Sprintf("server returned status %d", httpResp.StatusCode), true, nil)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, NewConnectionError(
			fmt.Sprintf("server returned status %d", httpResp.StatusCode), false, nil)
	}

	payload, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, NewConnectionError("failed to read response", true, err)
	}

	var resp apiResponse
	if err := xml.Unmarshal(payload, &resp); err != nil {
		return nil, NewConnectionError("failed to decode response", false, err)
	}

	tflog.SubsystemTrace(ctx, "ucs", "Received XML API response", map[string]any{
		"operation":   operation,
		"request_id":  requestID,
		"duration_ms": time.Since(start).Milliseconds(),
		"error_code":  resp.ErrorCode,
	})

	return &resp, nil
}

// categorizeAPIError maps remote error codes onto error categories.
func categorizeAPIError(code string) ErrorCategory {
	switch code {
	case "551", "552", "554":
		return ErrorCategoryAuthentication
	case "103", "150":
		return ErrorCategoryNotFound
	default:
		return ErrorCategoryServer
	}
}

// apiResponse is the generic XML API response envelope. Element names vary
// per request, so attributes and children are captured generically.
type apiResponse struct {
	XMLName    xml.Name
	OutCookie  string       `xml:"outCookie,attr"`
	ErrorCode  string       `xml:"errorCode,attr"`
	ErrorDescr string       `xml:"errorDescr,attr"`
	Response   string       `xml:"response,attr"`
	OutConfig  configBucket `xml:"outConfig"`
	OutConfigs configBucket `xml:"outConfigs"`
}

type configBucket struct {
	Elements []moElement `xml:",any"`
}

// moElement is a single managed-object element with dynamic name and attributes.
type moElement struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
}

func (e *moElement) toManagedObject() *ManagedObject {
	mo := NewManagedObject(e.XMLName.Local, "")
	for _, attr := range e.Attrs {
		switch attr.Name.Local {
		case "dn":
			mo.DN = attr.Value
		case "status", "rn":
			// Positional metadata, not object properties.
		default:
			mo.Props[attr.Name.Local] = attr.Value
		}
	}
	return mo
}

// xmlElement renders one XML element with escaped attribute values.
func xmlElement(name string, attrs map[string]string, children string) string {
	var sb strings.Builder
	sb.WriteString("<")
	sb.WriteString(name)

	// Deterministic attribute order keeps requests reproducible in tests.
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		sb.WriteString(" ")
		sb.WriteString(k)
		sb.WriteString(`="`)
		sb.WriteString(escapeXMLAttr(attrs[k]))
		sb.WriteString(`"`)
	}

	if children == "" {
		sb.WriteString("/>")
		return sb.String()
	}

	sb.WriteString(">")
	sb.WriteString(children)
	sb.WriteString("</")
	sb.WriteString(name)
	sb.WriteString(">")
	return sb.String()
}

// moXML renders a managed object as a configuration element with the given status.
func moXML(mo *ManagedObject, status string) string {
	attrs := make(map[string]string, len(mo.Props)+2)
	for k, v := range mo.Props {
		attrs[k] = v
	}
	attrs["dn"] = mo.DN
	attrs["status"] = status
	return xmlElement(mo.Class, attrs, "")
}

func escapeXMLAttr(value string) string {
	var buf bytes.Buffer
	// EscapeText only errors on a failing writer; bytes.Buffer never fails.
	_ = xml.EscapeText(&buf, []byte(value))
	return buf.String()
}

// replaceCookie rewrites the cookie attribute embedded in a request body.
func replaceCookie(body, cookie string) string {
	const marker = ` cookie="`
	start := strings.Index(body, marker)
	if start < 0 {
		return body
	}
	start += len(marker)
	end := strings.Index(body[start:], `"`)
	if end < 0 {
		return body
	}
	return body[:start] + escapeXMLAttr(cookie) + body[start+end:]
}
