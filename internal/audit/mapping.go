package audit

import (
	"net/http"
	"strings"
)

// ActionResource holds action and resource derived from an admin API request.
type ActionResource struct {
	Action   string
	Resource string
}

// adminAPIPrefix is the path prefix of the content management API.
const adminAPIPrefix = "/admin/api/"

// ParseRoute returns the audit action and resource for an admin API mutation.
// ok is false for reads and for paths outside the admin API.
// Paths look like /admin/api/{resource}[/{id}[/{op}]]; op is e.g. toggle-visibility.
func ParseRoute(method, path string) (ar ActionResource, ok bool) {
	if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
		return ActionResource{}, false
	}
	rest, found := strings.CutPrefix(path, adminAPIPrefix)
	if !found {
		return ActionResource{}, false
	}
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if parts[0] == "" {
		return ActionResource{}, false
	}
	resource := singular(parts[0])
	switch {
	case len(parts) >= 3:
		return ActionResource{Action: strings.ReplaceAll(parts[2], "-", "_"), Resource: resource}, true
	case method == http.MethodPost:
		return ActionResource{Action: "create", Resource: resource}, true
	case method == http.MethodPut || method == http.MethodPatch:
		return ActionResource{Action: "update", Resource: resource}, true
	case method == http.MethodDelete:
		return ActionResource{Action: "delete", Resource: resource}, true
	default:
		return ActionResource{Action: strings.ToLower(method), Resource: resource}, true
	}
}

// singular maps a collection path segment to its resource name (projects -> project).
func singular(segment string) string {
	switch segment {
	case "contact", "experience":
		return segment
	case "skills", "projects", "sections":
		return strings.TrimSuffix(segment, "s")
	default:
		return segment
	}
}
