package authz

import (
	"strings"

	"github.com/google/uuid"
)

const (
	globalDomain          = "global"
	subjectTenantPrefix   = "tenant"
	subjectUserPrefix     = "user"
	rolePrefix            = "role"
	objectSeparator       = "."
	subjectSeparator      = ":"
	defaultActionWildcard = "*"
	anonymousUser         = "anonymous"
)

// Attributes contain optional ABAC style attributes supplied with a request.
type Attributes map[string]any

// Request encapsulates all parameters required to evaluate a casbin rule.
type Request struct {
	Subject    string
	Domain     string
	Object     string
	Action     string
	Attributes Attributes
}

type RequestOption func(*Request)

func WithAttributes(attrs Attributes) RequestOption {
	return func(r *Request) {
		r.Attributes = attrs
	}
}

// WithAttribute sets a single attribute, keeping the rest.
func WithAttribute(key string, value any) RequestOption {
	return func(r *Request) {
		if r.Attributes == nil {
			r.Attributes = Attributes{}
		}
		r.Attributes[key] = value
	}
}

func NewRequest(subject, domain, object, action string, opts ...RequestOption) Request {
	req := Request{
		Subject:    subject,
		Domain:     domain,
		Object:     object,
		Action:     action,
		Attributes: Attributes{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&req)
		}
	}
	return req
}

// SubjectForUser builds tenant:{tenantID}:user:{userID}.
func SubjectForUser(tenantID, userID uuid.UUID) string {
	userPart := anonymousUser
	if userID != uuid.Nil {
		userPart = userID.String()
	}
	return strings.Join([]string{
		subjectTenantPrefix, DomainFromTenant(tenantID),
		subjectUserPrefix, userPart,
	}, subjectSeparator)
}

// SubjectForRole returns role:{slug}, lowercased.
func SubjectForRole(roleSlug string) string {
	roleSlug = strings.ToLower(strings.TrimSpace(roleSlug))
	if roleSlug == "" {
		roleSlug = "unnamed"
	}
	if strings.HasPrefix(roleSlug, rolePrefix+subjectSeparator) {
		return roleSlug
	}
	return rolePrefix + subjectSeparator + roleSlug
}

func DomainFromTenant(id uuid.UUID) string {
	if id == uuid.Nil {
		return globalDomain
	}
	return strings.ToLower(id.String())
}

// ObjectName returns the canonical module.resource string, lowercased.
func ObjectName(module, resource string) string {
	module = strings.ToLower(strings.TrimSpace(module))
	resource = strings.ToLower(strings.TrimSpace(resource))
	if module == "" {
		module = globalDomain
	}
	if resource == "" {
		resource = "resource"
	}
	return module + objectSeparator + resource
}

func NormalizeAction(action string) string {
	action = strings.ToLower(strings.TrimSpace(action))
	if action == "" {
		return defaultActionWildcard
	}
	return action
}
