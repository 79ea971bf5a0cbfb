package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"quiz-delivery-service/internal/app"
	"quiz-delivery-service/internal/domain"
	"quiz-delivery-service/internal/infra/postgres"
	infraredis "quiz-delivery-service/internal/infra/redis"
)

func TestQuizDeliveryEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	pool, err := postgres.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()
	store := postgres.NewStore(pool)

	// Before migrations every workflow reports the missing schema.
	if _, err := store.ListQuizzes(ctx); !errors.Is(err, domain.ErrSchemaNotReady) {
		t.Fatalf("expected schema not ready, got %v", err)
	}
	if d := store.Diagnose(ctx); !d.StoreReachable || len(d.MissingTables) != len(app.RequiredTables) {
		t.Fatalf("unexpected diagnostics before migrate %+v", d)
	}

	migrator := postgres.NewMigrator(pgURL, nil)
	for i := 0; i < 2; i++ {
		if err := migrator.Migrate(ctx); err != nil {
			t.Fatalf("migrate run %d: %v", i+1, err)
		}
	}
	if d := store.Diagnose(ctx); len(d.MissingTables) != 0 || d.ServerVersion == "" {
		t.Fatalf("unexpected diagnostics after migrate %+v", d)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	bridge := app.NewIdentityBridge(store, 5*time.Second, nil)
	auth := app.NewAuthService(store, bridge,
		infraredis.NewAttemptLimiter(redisClient, 5, time.Minute),
		infraredis.NewSessionStore(redisClient),
		app.AuthOptions{Secret: "integration-secret"})
	admin := app.NewAdminService(store, nil)
	users := app.NewUserService(store, 9.99, nil)
	setup := app.NewSetupService(store, migrator, store, app.SetupOptions{APIKey: "k"})

	adminSession, err := auth.SignUp(ctx, "admin@example.com", "secret123")
	if err != nil {
		t.Fatalf("sign up admin: %v", err)
	}
	if _, err := setup.PromoteAdmin(ctx, adminSession.Account.ID, ""); err != nil {
		t.Fatalf("promote: %v", err)
	}
	adminSession, _ = auth.SignIn(ctx, "admin@example.com", "secret123")
	adminAuth, err := auth.Authenticate(ctx, adminSession.Token)
	if err != nil || !adminAuth.IsAdmin() {
		t.Fatalf("expected admin session, got %+v %v", adminAuth, err)
	}

	taker, err := auth.SignUp(ctx, "taker@example.com", "secret123")
	if err != nil {
		t.Fatalf("sign up taker: %v", err)
	}
	takerAuth, _ := auth.Authenticate(ctx, taker.Token)

	quiz, err := admin.CreateQuiz(ctx, adminAuth, "JS Basics", "warm-up")
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	q1, err := admin.AddQuestion(ctx, adminAuth, quiz.ID, domain.Question{
		Prompt: "2+2?", Type: domain.QuestionMultipleChoice, Options: []string{"3", "4"}, CorrectAnswer: "4",
	})
	if err != nil {
		t.Fatalf("add q1: %v", err)
	}
	q2, err := admin.AddQuestion(ctx, adminAuth, quiz.ID, domain.Question{
		Prompt: "Keyword for constants?", Type: domain.QuestionText, CorrectAnswer: "const",
	})
	if err != nil {
		t.Fatalf("add q2: %v", err)
	}

	if _, err := users.Pay(ctx, takerAuth, quiz.ID); err != nil {
		t.Fatalf("pay: %v", err)
	}
	pending, err := admin.ReconcilePending(ctx, adminAuth)
	if err != nil || len(pending) != 1 || pending[0].UserEmail != "taker@example.com" || pending[0].QuizTitle != "JS Basics" {
		t.Fatalf("unexpected pending %+v %v", pending, err)
	}

	// Two admins assigning the same pair at once leave exactly one row.
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := admin.AssignPending(ctx, adminAuth, pending[0].Pair()); err != nil {
				t.Errorf("assign pending: %v", err)
			}
		}()
	}
	wg.Wait()
	assignments, _ := store.ListAssignmentsByQuiz(ctx, quiz.ID)
	if len(assignments) != 1 {
		t.Fatalf("expected one assignment, got %d", len(assignments))
	}
	if pending, _ = admin.ReconcilePending(ctx, adminAuth); len(pending) != 0 {
		t.Fatalf("expected nothing pending, got %+v", pending)
	}

	result, err := users.Submit(ctx, takerAuth, quiz.ID, map[string]string{q1.ID: "4", q2.ID: "let"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 50 {
		t.Fatalf("expected 50, got %v", result.Score)
	}
	mine, err := users.MyResults(ctx, takerAuth)
	if err != nil || len(mine) != 1 || mine[0].Answers[q2.ID] != "let" {
		t.Fatalf("unexpected results %+v %v", mine, err)
	}

	if err := admin.DeleteQuiz(ctx, adminAuth, quiz.ID); err != nil {
		t.Fatalf("delete quiz: %v", err)
	}
	payments, _ := store.ListPaymentsByUser(ctx, taker.Account.ID)
	results, _ := store.ListResultsByQuiz(ctx, quiz.ID)
	if len(payments) != 0 || len(results) != 0 {
		t.Fatalf("expected cascade to remove payments and results, got %d/%d", len(payments), len(results))
	}

	if err := auth.SignOut(ctx, takerAuth); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if _, err := auth.Authenticate(ctx, taker.Token); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected revoked session, got %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
