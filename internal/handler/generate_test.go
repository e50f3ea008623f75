package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/musewave/api/internal/middleware"
	"github.com/musewave/api/internal/service"
)

const testJWTSecret = "test-secret-for-handlers"

// setupApp wires the generate routes the way main.go does. Redis is pointed
// at a closed port: every path exercised here settles before any command is
// issued, and the rate limiter treats redis errors as allow.
func setupApp(t *testing.T) (*fiber.App, *middleware.AuthMiddleware) {
	t.Helper()

	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:1"})
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: "localhost:1"})
	t.Cleanup(func() { asynqClient.Close() })

	validate := validator.New()
	generateService := service.NewGenerateService(redisClient, asynqClient)
	generateHandler := NewGenerateHandler(generateService, validate)

	authMiddleware := middleware.NewAuthMiddleware(testJWTSecret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	app := fiber.New()
	api := app.Group("/api", authMiddleware.Authenticate())
	generate := api.Group("/generate")
	generate.Post("/start", rateLimiter.GenerateLimit(10), generateHandler.Start)
	generate.Get("/status/:jobId", generateHandler.Status)

	return app, authMiddleware
}

func doRequest(t *testing.T, app *fiber.App, method, path, token, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func parseError(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	var body struct {
		Error map[string]interface{} `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("response is not valid JSON: %s", data)
	}
	return body.Error
}

func TestStartRequiresAuth(t *testing.T) {
	app, _ := setupApp(t)

	resp := doRequest(t, app, http.MethodPost, "/api/generate/start", "", `{"prompt":"calm piano"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if errBody := parseError(t, resp); errBody["code"] != "UNAUTHORIZED" {
		t.Errorf("code = %v, want UNAUTHORIZED", errBody["code"])
	}
}

func TestStartRejectsGarbageToken(t *testing.T) {
	app, _ := setupApp(t)

	resp := doRequest(t, app, http.MethodPost, "/api/generate/start", "not-a-jwt", `{"prompt":"calm piano"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestStartValidatesPrompt(t *testing.T) {
	app, auth := setupApp(t)

	token, err := auth.GenerateToken("user-1", "user@example.com")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		body string
	}{
		{"missing prompt", `{}`},
		{"prompt too short", `{"prompt":"ab"}`},
		{"unknown video style", `{"prompt":"calm piano at dusk","videoStyle":"hologram"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, app, http.MethodPost, "/api/generate/start", token, tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
			if errBody := parseError(t, resp); errBody["code"] != "VALIDATION_ERROR" {
				t.Errorf("code = %v, want VALIDATION_ERROR", errBody["code"])
			}
		})
	}
}

func TestStatusRequiresAuth(t *testing.T) {
	app, _ := setupApp(t)

	resp := doRequest(t, app, http.MethodGet, "/api/generate/status/abc12345", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}
