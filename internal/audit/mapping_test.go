package audit

import (
	"net/http"
	"testing"
)

func TestParseRoute(t *testing.T) {
	testCases := []struct {
		method   string
		path     string
		wantOK   bool
		action   string
		resource string
	}{
		{http.MethodPost, "/admin/api/projects", true, "create", "project"},
		{http.MethodPut, "/admin/api/projects/abc", true, "update", "project"},
		{http.MethodDelete, "/admin/api/experience/abc", true, "delete", "experience"},
		{http.MethodPost, "/admin/api/projects/abc/toggle-featured", true, "toggle_featured", "project"},
		{http.MethodPost, "/admin/api/contact/abc/toggle-visibility", true, "toggle_visibility", "contact"},
		{http.MethodPatch, "/admin/api/sections/abc", true, "update", "section"},
		{http.MethodPost, "/admin/api/skills", true, "create", "skill"},
		{http.MethodGet, "/admin/api/projects", false, "", ""},
		{http.MethodHead, "/admin/api/projects", false, "", ""},
		{http.MethodPost, "/signIn", false, "", ""},
		{http.MethodPost, "/admin/api/", false, "", ""},
		{http.MethodPost, "/api/projects", false, "", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			ar, ok := ParseRoute(tc.method, tc.path)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if ar.Action != tc.action || ar.Resource != tc.resource {
				t.Errorf("got %+v, want action=%q resource=%q", ar, tc.action, tc.resource)
			}
		})
	}
}
