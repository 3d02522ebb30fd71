package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRoute(t *testing.T) {
	cases := []struct {
		method, pattern string
		want            ActionResource
	}{
		{"POST", "/api/admin/announcements", ActionResource{"create", "announcement"}},
		{"PUT", "/api/admin/announcements/{id}", ActionResource{"update", "announcement"}},
		{"DELETE", "/api/admin/announcements/{id}", ActionResource{"delete", "announcement"}},
		{"POST", "/api/admin/events", ActionResource{"create", "event"}},
		{"GET", "/api/admin/users", ActionResource{"list", "user"}},
		{"GET", "/api/admin/audit-logs", ActionResource{"list", "audit_log"}},
		{"PUT", "/api/admin/users/{id}/role", ActionResource{"role_changed", "user"}},
		{"PUT", "/api/admin/users/{id}/core", ActionResource{"core_info_updated", "user"}},
		{"DELETE", "/api/admin/users/{id}", ActionResource{"user_removed", "user"}},
		{"GET", "/api/events/{slug}", ActionResource{"get", "event"}},
		{"OPTIONS", "/", ActionResource{"options", "unknown"}},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.pattern, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseRoute(tc.method, tc.pattern))
		})
	}
}
