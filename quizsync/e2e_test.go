package quizsync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mobiletoly/go-quizsync/localstore"
	"github.com/mobiletoly/go-quizsync/netmon"
	"github.com/mobiletoly/go-quizsync/quizapi"
	"github.com/mobiletoly/go-quizsync/quizkv"
)

func startSubmissionServer(t *testing.T) (*httptest.Server, *quizapi.MemoryRepository, string) {
	t.Helper()
	ctx := context.Background()

	repo := quizapi.NewMemoryRepository()
	require.NoError(t, repo.SaveQuiz(ctx, quizapi.QuizDefinition{
		Quiz: quizapi.Quiz{
			ID:    "q1",
			Title: "Gospels",
			Questions: []quizapi.Question{
				{ID: "a", Text: "Where was Jesus born?", Points: 1, Options: []quizapi.Option{{ID: "1", Text: "Bethlehem"}, {ID: "2", Text: "Nazareth"}}},
			},
		},
		AnswerKey: map[string]int{"a": 0},
	}))

	svc, err := quizapi.NewSubmissionService(repo, nil, nil)
	require.NoError(t, err)
	jwtAuth := quizapi.NewJWTAuth("e2e-secret")
	token, err := jwtAuth.GenerateToken("participant-1", "device-1", time.Hour)
	require.NoError(t, err)

	mux := http.NewServeMux()
	quizapi.NewHTTPHandlers(svc, nil).Register(mux, jwtAuth)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, repo, token
}

// Two answer sets queued offline; after reconnect the server accepts the first and
// rejects the second because quiz q2 does not exist there.
func TestEndToEnd_OfflineQueueDrainsAfterReconnect(t *testing.T) {
	ctx := context.Background()
	srv, repo, token := startSubmissionServer(t)

	store := localstore.New(quizkv.NewMemoryStorage(), nil)
	monitor := netmon.NewMonitor(nil, nil)
	client := NewAPIClient(srv.URL, func(context.Context) (string, error) { return token, nil }, nil)

	cfg := DefaultConfig()
	cfg.SyncInterval = time.Hour
	cfg.ReconnectDelay = 20 * time.Millisecond

	var results []CycleTiming
	done := make(chan struct{}, 1)
	cfg.Metrics = CycleMetricsRecorderFunc(func(_ context.Context, timing CycleTiming) {
		if timing.Outcome == OutcomeCompleted {
			results = append(results, timing)
			select {
			case done <- struct{}{}:
			default:
			}
		}
	})

	coord, err := NewCoordinator(store, monitor, client, cfg, nil)
	require.NoError(t, err)

	monitor.Update(false)
	_, err = store.EnqueuePendingAnswers(ctx, "q1", []quizapi.Answer{{QuestionID: "a", SelectedOption: 0}})
	require.NoError(t, err)
	idB, err := store.EnqueuePendingAnswers(ctx, "q2", []quizapi.Answer{{QuestionID: "a", SelectedOption: 1}})
	require.NoError(t, err)

	coord.StartAutoSync(ctx)
	defer coord.StopAutoSync()

	monitor.Update(true)
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("no sync cycle after reconnect")
	}
	coord.StopAutoSync()

	require.Len(t, results, 1)
	require.Equal(t, 1, results[0].Synced)
	require.Equal(t, 1, results[0].Failed)

	sets := store.UnsyncedAnswerSets(ctx)
	require.Len(t, sets, 1)
	require.Equal(t, idB, sets[0].ID)
	require.Equal(t, 1, sets[0].SyncAttempts)
	require.Equal(t, 1, repo.SubmissionCount())

	// A manual cycle with the same payload produces the documented result shape
	res := coord.SyncPendingAnswers(ctx)
	require.False(t, res.Success)
	require.Zero(t, res.Synced)
	require.Equal(t, 1, res.Failed)
	require.Contains(t, res.Errors[0], idB)
}

func TestEndToEnd_RefreshCacheFromServer(t *testing.T) {
	ctx := context.Background()
	srv, _, token := startSubmissionServer(t)

	store := localstore.New(quizkv.NewMemoryStorage(), nil)
	monitor := netmon.NewMonitor(nil, nil)
	monitor.Update(true)
	client := NewAPIClient(srv.URL, func(context.Context) (string, error) { return token, nil }, nil)

	coord, err := NewCoordinator(store, monitor, client, nil, nil)
	require.NoError(t, err)

	n, err := coord.RefreshQuizCache(ctx, client, store)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	cached, ok := store.CachedQuiz(ctx, "q1")
	require.True(t, ok)
	require.Equal(t, "Gospels", cached.Title)
}
