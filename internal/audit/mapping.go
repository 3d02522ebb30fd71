package audit

import (
	"net/http"
	"strings"
)

// ActionResource holds action and resource derived from an HTTP route.
type ActionResource struct {
	Action   string
	Resource string
}

// Route overrides for actions that read better than the generic verb.
var routeOverrides = map[string]ActionResource{
	"PUT /api/admin/users/{id}/role": {Action: "role_changed", Resource: "user"},
	"PUT /api/admin/users/{id}/core": {Action: "core_info_updated", Resource: "user"},
	"DELETE /api/admin/users/{id}":   {Action: "user_removed", Resource: "user"},
}

// ParseRoute returns action and resource for a request method and chi route
// pattern (e.g. "POST", "/api/admin/events"). The resource is the singular form
// of the first path segment after /api/admin or /api, and the action follows
// the method: create, update, delete, get or list.
func ParseRoute(method, pattern string) ActionResource {
	if ar, ok := routeOverrides[method+" "+pattern]; ok {
		return ar
	}
	rest := strings.TrimPrefix(pattern, "/api")
	rest = strings.TrimPrefix(rest, "/admin")
	segments := strings.Split(strings.Trim(rest, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return ActionResource{Action: strings.ToLower(method), Resource: "unknown"}
	}
	resource := singular(segments[0])
	hasID := len(segments) > 1 && strings.HasPrefix(segments[1], "{")
	return ActionResource{Action: methodToAction(method, hasID), Resource: resource}
}

func singular(s string) string {
	s = strings.ReplaceAll(s, "-", "_")
	if strings.HasSuffix(s, "s") && !strings.HasSuffix(s, "ss") {
		return s[:len(s)-1]
	}
	return s
}

func methodToAction(method string, hasID bool) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	case http.MethodGet:
		if hasID {
			return "get"
		}
		return "list"
	default:
		return strings.ToLower(method)
	}
}
