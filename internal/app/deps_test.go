package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/handlers"
	"github.com/clipstream/backend/internal/storage"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Close() {}

func testConfig() config.Config {
	return config.Config{
		AppPort:      8080,
		HistoryLimit: 200,
		Database:     config.DatabaseConfig{Driver: "memory"},
		Auth: config.AuthConfig{
			AccessSecret:  "access",
			RefreshSecret: "refresh",
			AccessTTL:     time.Minute,
			RefreshTTL:    time.Hour,
		},
		RateLimit: config.RateLimitConfig{Requests: 10, Window: time.Minute, Burst: 5},
	}
}

func TestBuildDependencies(t *testing.T) {
	for name, b := range map[string]backend{
		"postgres": postgresBackend(fakePool{}),
		"memory":   memoryBackend(),
	} {
		t.Run(name, func(t *testing.T) {
			deps := buildDependencies(b, storage.NewMemoryStorage(memoryMediaBaseURL), testConfig(), nil)

			if deps.Sessions == nil || deps.Accounts == nil || deps.Relationships == nil || deps.Views == nil {
				t.Fatalf("expected core services to be configured: %+v", deps)
			}
			if deps.Videos == nil || deps.Comments == nil || deps.Playlists == nil {
				t.Fatal("expected content services to be configured")
			}
			if deps.Limiter == nil {
				t.Fatal("expected rate limiter to be configured")
			}
			if deps.TrustForwardedFor {
				t.Fatal("expected X-Forwarded-For to stay untrusted unless configured")
			}
			if deps.Health != nil {
				t.Fatal("expected no health pinger without a live pool")
			}
		})
	}
}

func TestMemoryBackendServesRequests(t *testing.T) {
	b, err := openBackend(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	defer b.close()

	router := handlers.NewRouter(buildDependencies(b, storage.NewMemoryStorage(memoryMediaBaseURL), testConfig(), nil))

	for _, path := range []string{"/healthz", "/api/v1/videos", "/metrics"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: expected 200 got %d", path, rec.Code)
		}
	}
}

func TestNewMediaStorage(t *testing.T) {
	cfg := testConfig()

	media, err := newMediaStorage(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := media.(*storage.MemoryStorage); !ok {
		t.Fatalf("expected memory storage without a bucket, got %T", media)
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	cfg.ObjectStore = config.ObjectStoreConfig{Bucket: "test-bucket", Endpoint: "http://localhost:9000", Region: "us-east-1"}

	media, err = newMediaStorage(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := media.(*storage.S3Storage); !ok {
		t.Fatalf("expected s3 storage with a bucket, got %T", media)
	}
}

func TestMigrateValidation(t *testing.T) {
	cfg := testConfig()
	if err := Migrate(context.Background(), cfg, "up"); err == nil {
		t.Fatal("expected memory driver to be rejected")
	}

	cfg.Database = config.DatabaseConfig{Driver: "postgres", URL: "postgres://unused"}
	if err := Migrate(context.Background(), cfg, "sideways"); err == nil {
		t.Fatal("expected unknown command to be rejected")
	}
}

func TestServeRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.AccessSecret = ""
	if err := Serve(context.Background(), cfg); err == nil {
		t.Fatal("expected missing secret to be rejected")
	}
}
