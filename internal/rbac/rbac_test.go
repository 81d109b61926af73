package rbac_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mind-engage/examprep/internal/rbac"
)

func TestCheckerDefaultPolicy(t *testing.T) {
	c := rbac.NewChecker(nil)
	cases := []struct {
		role, perm string
		want       bool
	}{
		{"student", rbac.PermResultSubmit, true},
		{"student", rbac.PermQuestionImport, false},
		{"editor", rbac.PermQuestionImport, true}, // via question:*
		{"editor", rbac.PermResultSubmitAny, false},
		{"admin", rbac.PermResultSubmitAny, true},
		{"", rbac.PermResultSubmit, false},
		{"ghost", rbac.PermResultSubmit, false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Fatalf("Has(%q, %q) = %v", tc.role, tc.perm, got)
		}
	}

	custom := rbac.NewChecker(map[string][]string{"grader": {"result:view-*", "asset:upload"}})
	for perm, want := range map[string]bool{
		rbac.PermResultViewOwn:  true,
		rbac.PermResultViewAll:  true,
		rbac.PermAssetUpload:    true,
		rbac.PermResultSubmit:   false,
		rbac.PermQuestionImport: false,
	} {
		if got := custom.Has("grader", perm); got != want {
			t.Fatalf("grader Has(%q) = %v", perm, got)
		}
	}
}

func serve(h http.Handler, role, sub string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := rbac.WithSubject(rbac.WithRole(context.Background(), role), sub)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(ctx))
	return rec.Code
}

func TestRequireMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := rbac.Require(rbac.PermQuestionImport)(ok)
	if code := serve(h, "student", "u1"); code != http.StatusForbidden {
		t.Fatalf("student import: %d", code)
	}
	if code := serve(h, "editor", "e1"); code != http.StatusOK {
		t.Fatalf("editor import: %d", code)
	}

	owner := rbac.RequireOwnerOr(rbac.PermResultViewAll, func(r *http.Request) bool {
		return rbac.SubjectFromContext(r.Context()) == "u1"
	})(ok)
	if code := serve(owner, "student", "u1"); code != http.StatusOK {
		t.Fatalf("owner: %d", code)
	}
	if code := serve(owner, "student", "u2"); code != http.StatusForbidden {
		t.Fatalf("other student: %d", code)
	}
	if code := serve(owner, "", "u1"); code != http.StatusForbidden {
		t.Fatalf("anonymous: %d", code)
	}
}

func TestContextKeepsSubjectAndRole(t *testing.T) {
	ctx := rbac.WithRole(rbac.WithSubject(context.Background(), "u1"), "student")
	if rbac.SubjectFromContext(ctx) != "u1" || rbac.RoleFromContext(ctx) != "student" {
		t.Fatalf("subject %q role %q", rbac.SubjectFromContext(ctx), rbac.RoleFromContext(ctx))
	}
	if !rbac.Can(ctx, rbac.PermResultSubmit) || rbac.Can(ctx, rbac.PermQuestionImport) {
		t.Fatal("student permissions")
	}
	if rbac.SubjectFromContext(context.Background()) != "" || rbac.Can(context.Background(), rbac.PermResultSubmit) {
		t.Fatal("anonymous context")
	}
}
