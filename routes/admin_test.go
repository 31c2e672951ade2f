package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"

	"github.com/tandia00/immobilier-mali-app-sub000/utils"
)

// buildTestApp wires the admin guard chain in front of a stub handler so the
// role checks can be exercised without a database.
func buildTestApp() *iris.Application {
	os.Setenv("ACCESS_TOKEN_SECRET", "testsecret")
	app := iris.New()

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} { return new(utils.AccessToken) })

	admin := app.Party("/api/admin", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware)
	{
		admin.Get("/ping", func(ctx iris.Context) {
			ctx.JSON(iris.Map{"ok": true})
		})
		admin.Get("/super", utils.SuperAdminOnlyMiddleware, func(ctx iris.Context) {
			ctx.JSON(iris.Map{"ok": true})
		})
	}

	if err := app.Build(); err != nil {
		panic(err)
	}
	return app
}

func signTestToken(role string) string {
	signer := jwt.NewSigner(jwt.HS256, os.Getenv("ACCESS_TOKEN_SECRET"), 0)
	token, _ := signer.Sign(utils.AccessToken{ID: 1, Role: role})
	return string(token)
}

func doRequest(app *iris.Application, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	return resp
}

func TestAdminRoutesRBAC(t *testing.T) {
	app := buildTestApp()

	if resp := doRequest(app, "/api/admin/ping", ""); resp.Code == http.StatusOK {
		t.Fatalf("expected non-200 without token, got %d", resp.Code)
	}

	if resp := doRequest(app, "/api/admin/ping", signTestToken("user")); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for user role, got %d", resp.Code)
	}

	if resp := doRequest(app, "/api/admin/ping", signTestToken("admin")); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin role, got %d", resp.Code)
	}

	if resp := doRequest(app, "/api/admin/ping", signTestToken("super_admin")); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for super_admin role, got %d", resp.Code)
	}
}

func TestSuperAdminRoutesRBAC(t *testing.T) {
	app := buildTestApp()

	if resp := doRequest(app, "/api/admin/super", signTestToken("admin")); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for admin role, got %d", resp.Code)
	}

	if resp := doRequest(app, "/api/admin/super", signTestToken("super_admin")); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for super_admin role, got %d", resp.Code)
	}
}
