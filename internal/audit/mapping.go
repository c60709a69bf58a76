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

// Route overrides, keyed by "METHOD pattern". Membership and role changes get dedicated actions.
var routeOverrides = map[string]ActionResource{
	"POST /signup":                                  {Action: "signup", Resource: "user"},
	"POST /login":                                   {Action: "login", Resource: "session"},
	"POST /logout":                                  {Action: "logout", Resource: "session"},
	"POST /me/update":                               {Action: "update", Resource: "profile"},
	"POST /me/password":                             {Action: "password_changed", Resource: "user"},
	"POST /me/preferences":                          {Action: "update", Resource: "preferences"},
	"POST /workspaces/{name}/members":               {Action: "user_added", Resource: "workspace"},
	"POST /workspaces/{name}/tasks/{taskID}/assign": {Action: "assign", Resource: "task"},
	"POST /admin/users/{id}/role":                   {Action: "role_changed", Resource: "user"},
	"POST /admin/users/{id}/admin":                  {Action: "role_changed", Resource: "user"},
	"POST /admin/users/{id}/subscription":           {Action: "subscription_changed", Resource: "user"},
	"POST /admin/announcements":                     {Action: "create", Resource: "site_announcement"},
	"POST /site-announcements/{id}/seen":             {Action: "seen", Resource: "site_announcement"},
}

// ParseRoute returns action and resource for an HTTP method and chi route pattern
// (e.g. "DELETE", "/workspaces/{name}"). Action is derived from the method
// (POST create, PUT/PATCH update, DELETE delete, GET list or get) and resource from the
// last literal path segment, singularized.
func ParseRoute(method, pattern string) ActionResource {
	if ar, ok := routeOverrides[method+" "+pattern]; ok {
		return ar
	}
	segments := strings.Split(strings.Trim(pattern, "/"), "/")
	resource := ""
	endsWithParam := false
	for _, s := range segments {
		if strings.HasPrefix(s, "{") {
			endsWithParam = true
			continue
		}
		if s == "" {
			continue
		}
		resource = s
		endsWithParam = false
	}
	if resource == "" {
		return ActionResource{Action: "unknown", Resource: "unknown"}
	}
	return ActionResource{Action: methodToAction(method, endsWithParam), Resource: singular(resource)}
}

func methodToAction(method string, endsWithParam bool) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	case http.MethodGet:
		if endsWithParam {
			return "get"
		}
		return "list"
	default:
		return strings.ToLower(method)
	}
}

func singular(s string) string {
	s = strings.ReplaceAll(s, "-", "_")
	return strings.TrimSuffix(s, "s")
}
