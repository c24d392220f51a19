package gateway

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"git.solsynth.dev/hypernet/cuisine/pkg/internal/models"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, app *fiber.App) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		_ = app.Listener(ln)
	}()
	t.Cleanup(func() {
		_ = app.Shutdown()
	})
	return "http://" + ln.Addr().String()
}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{DisableStartupMessage: true})
}

func TestDecodeResult(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		success bool
		data    string
		message string
		failed  bool
	}{
		{name: "bare resource", status: 200, body: `{"id":"r1"}`, success: true, data: `{"id":"r1"}`},
		{name: "bare array", status: 200, body: `[1,2]`, success: true, data: `[1,2]`},
		{name: "enveloped", status: 201, body: `{"success":true,"data":{"id":"r1"}}`, success: true, data: `{"id":"r1"}`},
		{name: "empty ok", status: 204, body: ``, success: true},
		{name: "flagged failure", status: 200, body: `{"success":false,"message":"Already liked"}`, message: "Already liked"},
		{name: "flagged failure without message", status: 200, body: `{"success":false}`, message: rejectedMessage},
		{name: "error status with message", status: 403, body: `{"message":"Not a member"}`, message: "Not a member"},
		{name: "nested error", status: 400, body: `{"error":{"message":"Bad text"}}`, message: "Bad text"},
		{name: "error status without body", status: 500, body: ``, failed: true},
		{name: "error status with html", status: 502, body: `<html>bad gateway</html>`, failed: true},
		{name: "error status with messageless object", status: 404, body: `{"code":404}`, failed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := decodeResult(tt.status, []byte(tt.body))
			if tt.failed {
				var gwErr *Error
				require.ErrorAs(t, err, &gwErr)
				assert.Equal(t, tt.status, gwErr.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.success, result.Success)
			assert.Equal(t, tt.message, result.Message)
			if len(tt.data) > 0 {
				assert.JSONEq(t, tt.data, string(result.Data))
			}
		})
	}
}

func TestClientSendsBearerAndBody(t *testing.T) {
	app := newApp()

	var auth, contentType string
	var received map[string]any
	app.Post("/recipes/:id/comments", func(c *fiber.Ctx) error {
		auth = c.Get(fiber.HeaderAuthorization)
		contentType = c.Get(fiber.HeaderContentType)
		if err := jsoniter.Unmarshal(c.Body(), &received); err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":   "c1",
			"text": received["text"],
		})
	})

	client := New(serve(t, app), WithToken("secret"))
	result, err := client.AddComment(context.Background(), "r1", "Looks great")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, fiber.MIMEApplicationJSON, contentType)
	assert.Equal(t, "Looks great", received["text"])
	assert.JSONEq(t, `{"id":"c1","text":"Looks great"}`, string(result.Data))
}

func TestClientRoutes(t *testing.T) {
	app := newApp()

	var calls []string
	record := func(c *fiber.Ctx) error {
		calls = append(calls, c.Method()+" "+c.OriginalURL())
		return c.JSON(fiber.Map{"success": true})
	}
	app.Get("/recipes", record)
	app.Put("/recipes/:id", record)
	app.Delete("/recipes/:id/like", record)
	app.Put("/groups/:id/requests/:user", func(c *fiber.Ctx) error {
		var body struct {
			Action  string `json:"action"`
			AdminID string `json:"adminId"`
		}
		if err := jsoniter.Unmarshal(c.Body(), &body); err != nil {
			return err
		}
		calls = append(calls, c.Method()+" "+c.OriginalURL()+" "+body.Action+" "+body.AdminID)
		return c.JSON(fiber.Map{"success": true})
	})
	app.Delete("/groups/:id/requests/:user", record)
	app.Put("/groups/:id/members/:user", func(c *fiber.Ctx) error {
		var body struct {
			Role string `json:"role"`
		}
		if err := jsoniter.Unmarshal(c.Body(), &body); err != nil {
			return err
		}
		calls = append(calls, c.Method()+" "+c.OriginalURL()+" "+body.Role)
		return c.JSON(fiber.Map{"success": true})
	})

	ctx := context.Background()
	client := New(serve(t, app) + "/")

	_, err := client.ListRecipes(ctx, RecipeQuery{GroupID: "g1"})
	require.NoError(t, err)
	_, err = client.UpdateRecipe(ctx, "r1", map[string]any{"moderationState": models.ModerationVisible})
	require.NoError(t, err)
	_, err = client.UnlikeRecipe(ctx, "r1")
	require.NoError(t, err)
	_, err = client.HandleJoinRequest(ctx, "g1", "u2", RequestActionApprove, "u1")
	require.NoError(t, err)
	_, err = client.CancelJoinRequest(ctx, "g1", "u2")
	require.NoError(t, err)
	_, err = client.PromoteMember(ctx, "g1", "u2", models.MemberRoleAdmin)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"GET /recipes?groupId=g1",
		"PUT /recipes/r1",
		"DELETE /recipes/r1/like",
		"PUT /groups/g1/requests/u2 approve u1",
		"DELETE /groups/g1/requests/u2",
		"PUT /groups/g1/members/u2 admin",
	}, calls)
}

func TestClientApplicationFailure(t *testing.T) {
	app := newApp()
	app.Post("/groups/:id/join", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "You already asked to join"})
	})

	result, err := New(serve(t, app)).JoinGroup(context.Background(), "g1")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "You already asked to join", result.Message)
}

func TestClientNetworkFailure(t *testing.T) {
	app := newApp()
	app.Delete("/recipes/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusInternalServerError)
	})

	_, err := New(serve(t, app)).DeleteRecipe(context.Background(), "r1")
	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, fiber.StatusInternalServerError, gwErr.Status)
}

func TestClientTimeout(t *testing.T) {
	app := newApp()
	app.Get("/groups", func(c *fiber.Ctx) error {
		time.Sleep(200 * time.Millisecond)
		return c.JSON([]any{})
	})

	client := New(serve(t, app), WithTimeouts(20*time.Millisecond, 0))
	_, err := client.ListGroups(context.Background())

	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, time.Duration(DefaultWriteTimeout), client.WriteTimeout)
}
