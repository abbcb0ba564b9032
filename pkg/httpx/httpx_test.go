package httpx_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fieldops360/auth-service/pkg/errx"
	"github.com/fieldops360/auth-service/pkg/httpx"
	"github.com/fieldops360/auth-service/pkg/kernel"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testRegistry = errx.NewRegistry("TEST")
	codeInvalid  = testRegistry.Register("VALIDATION_ERROR", errx.TypeValidation, http.StatusBadRequest, "Invalid request")
)

type signup struct {
	Email string `json:"email"`
}

func (s signup) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Email, validation.Required, is.Email),
	)
}

func newApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: errx.FiberHandler(false)})
	app.Post("/signup", func(c *fiber.Ctx) error {
		var body signup
		if err := httpx.Bind(c, &body, func() *errx.Error { return testRegistry.New(codeInvalid) }); err != nil {
			return err
		}
		return httpx.Created(c, body)
	})
	app.Get("/page", func(c *fiber.Ctx) error {
		return httpx.Page(c, kernel.NewPaginated([]string{"a"}, 1, 20, 1))
	})
	return app
}

func post(t *testing.T, app *fiber.App, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return resp.StatusCode, out
}

func TestBind_Valid(t *testing.T) {
	status, out := post(t, newApp(), `{"email":"a@demo.com"}`)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "a@demo.com", out["data"].(map[string]any)["email"])
	assert.NotContains(t, out, "meta")
}

func TestBind_FieldErrorsBecomeDetails(t *testing.T) {
	status, out := post(t, newApp(), `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	errBody := out["error"].(map[string]any)
	assert.Equal(t, "TEST_VALIDATION_ERROR", errBody["code"])
	assert.Contains(t, errBody["details"], "email")
}

func TestBind_MalformedBody(t *testing.T) {
	status, out := post(t, newApp(), `{"email":`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, out["success"])
}

func TestPage_CarriesMeta(t *testing.T) {
	resp, err := newApp().Test(httptest.NewRequest(http.MethodGet, "/page", nil))
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	meta := out["meta"].(map[string]any)
	assert.EqualValues(t, 1, meta["total"])
	assert.EqualValues(t, 20, meta["limit"])
}
