package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/enrichment"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/service/quota"
)

const testChannelID = "UCabcdefghijklmnopqrstuv"

type harness struct {
	store   *memStore
	gen     *stubGenerator
	sink    *mockSink
	src     *fakeSource
	events  *recordingPublisher
	locker  *memLocker
	metrics *Metrics
	engine  *Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:   newMemStore(),
		gen:     &stubGenerator{fail: map[string]error{}},
		sink:    &mockSink{},
		src:     &fakeSource{},
		events:  &recordingPublisher{},
		locker:  newMemLocker(),
		metrics: NewMetrics(prometheus.NewRegistry()),
	}
	h.engine = New(Deps{
		Videos:      h.store,
		Suggestions: h.store,
		Changes:     h.store,
		Channels:    h.store,
		Tx:          h.store,
		Locker:      h.locker,
		Source:      h.src,
		Sink:        h.sink,
		Generator:   h.gen,
		Events:      h.events,
		Metrics:     h.metrics,
	}, Options{Language: "en"})
	return h
}

func videoID(n int) string { return fmt.Sprintf("vid%08d", n) }

func day(n int) *time.Time {
	t := time.Date(2025, 1, n, 12, 0, 0, 0, time.UTC)
	return &t
}

func (h *harness) seed(t *testing.T, n int, status models.Status, published *time.Time) string {
	t.Helper()
	id := videoID(n)
	v := models.NewVideo(id, testChannelID, "Title "+id, "Description", []string{"news", "canada"}, published)
	v.Status = status
	require.NoError(t, h.store.UpsertVideo(context.Background(), v))
	return id
}

func (h *harness) suggest(t *testing.T, id, lang, title string) *models.Suggestion {
	t.Helper()
	s := models.NewSuggestion(id, lang, models.SuggestionFields{Title: title, Tags: []string{"generated"}})
	require.NoError(t, h.store.CreateSuggestion(context.Background(), s))
	return s
}

func TestSyncChannel(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.src.videos = []*models.Video{
		models.NewVideo(videoID(1), testChannelID, "One", "d", []string{"a"}, day(1)),
		models.NewVideo(videoID(2), testChannelID, "Two", "d", nil, day(2)),
		models.NewVideo(videoID(3), testChannelID, "Three", "d", nil, nil),
	}
	h.src.channel = &models.Channel{ChannelID: testChannelID, Title: "The News Forum"}

	result, err := h.engine.SyncChannel(ctx, "@TheNewsForum", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count())
	assert.Equal(t, models.StatusPending, h.store.status(videoID(1)))
	assert.Empty(t, h.store.status(videoID(3)), "limit respected")

	ch, err := h.store.GetChannelByHandle(ctx, "@thenewsforum")
	require.NoError(t, err)
	assert.Equal(t, "The News Forum", ch.Title)
	assert.NotNil(t, ch.LastSyncedAt)

	t.Run("re-sync is idempotent and keeps status", func(t *testing.T) {
		require.NoError(t, h.store.MarkStatus(ctx, videoID(1), models.StatusApproved))
		h.src.videos[0].TitleOriginal = "One (edited)"

		result, err := h.engine.SyncChannel(ctx, "@TheNewsForum", 3)
		require.NoError(t, err)
		assert.Equal(t, 3, result.Count())

		v, err := h.store.GetVideoByID(ctx, videoID(1))
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, v.Status)
		assert.Equal(t, "One (edited)", v.TitleOriginal)
		assert.Len(t, h.store.videos, 3)
	})

	t.Run("source failure fails the call", func(t *testing.T) {
		h.src.err = errors.New("youtube down")
		defer func() { h.src.err = nil }()

		_, err := h.engine.SyncChannel(ctx, "@TheNewsForum", 3)
		assert.ErrorContains(t, err, "youtube down")
	})
}

func TestGenerateSuggestions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	older := h.seed(t, 1, models.StatusPending, day(1))
	newer := h.seed(t, 2, models.StatusPending, day(5))
	undated := h.seed(t, 3, models.StatusPending, nil)
	approved := h.seed(t, 4, models.StatusApproved, day(9))

	result, err := h.engine.GenerateSuggestions(ctx, 10, "", "")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Count())
	require.Len(t, result.Outcomes, 3)
	assert.Equal(t, []string{newer, older, undated},
		[]string{result.Outcomes[0].VideoID, result.Outcomes[1].VideoID, result.Outcomes[2].VideoID})

	for _, id := range []string{older, newer, undated} {
		assert.Equal(t, models.StatusSuggested, h.store.status(id))
		s, err := h.engine.LatestSuggestion(ctx, id, "en")
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, "Better: Title "+id, s.Title)
	}
	assert.Equal(t, models.StatusApproved, h.store.status(approved))

	assert.Equal(t, []models.Status{models.StatusPending, models.StatusSuggested}, h.events.path(older))
	assert.Equal(t, float64(3), promtest.ToFloat64(h.metrics.outcomes.WithLabelValues(opGenerate, string(OutcomeSuccess))))
}

func TestGenerateSuggestions_PriorityAndLimit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.seed(t, 1, models.StatusPending, day(1))
	h.seed(t, 2, models.StatusPending, day(5))
	linked := h.seed(t, 3, models.StatusPending, day(2))
	require.NoError(t, h.store.SetEpisode(ctx, linked, strPtr("ep-1")))

	result, err := h.engine.GenerateSuggestions(ctx, 1, "en", models.PriorityLinked)
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, linked, result.Outcomes[0].VideoID)

	result, err = h.engine.GenerateSuggestions(ctx, 1, "en", models.PriorityOldest)
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, videoID(1), result.Outcomes[0].VideoID)
}

func TestGenerateSuggestions_PartialFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ok1 := h.seed(t, 1, models.StatusPending, day(3))
	bad := h.seed(t, 2, models.StatusPending, day(2))
	ok2 := h.seed(t, 3, models.StatusPending, day(1))
	h.gen.fail[bad] = errors.New("llm unreachable")

	result, err := h.engine.GenerateSuggestions(ctx, 10, "en", models.PriorityRecent)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Count())
	assert.Equal(t, map[OutcomeStatus]int{OutcomeSuccess: 2, OutcomeFailed: 1}, result.Tally())
	assert.Equal(t, OutcomeFailed, result.Outcomes[1].Status)
	assert.Contains(t, result.Outcomes[1].Reason, "llm unreachable")

	assert.Equal(t, models.StatusSuggested, h.store.status(ok1))
	assert.Equal(t, models.StatusPending, h.store.status(bad))
	assert.Equal(t, models.StatusSuggested, h.store.status(ok2))
}

func TestGenerateSuggestions_StoreFailureRollsBack(t *testing.T) {
	h := newHarness(t)
	id := h.seed(t, 1, models.StatusPending, day(1))
	h.store.failCreateSuggestion = errors.New("disk full")

	result, err := h.engine.GenerateSuggestions(context.Background(), 10, "en", "")
	require.NoError(t, err)
	assert.Zero(t, result.Count())
	assert.Equal(t, models.StatusPending, h.store.status(id))
}

func TestGenerateSuggestions_LockedVideoSkipped(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t, 1, models.StatusPending, day(1))

	unlock, ok, err := h.locker.TryLock(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	defer unlock()

	result, err := h.engine.GenerateSuggestions(ctx, 10, "en", "")
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, OutcomeSkipped, result.Outcomes[0].Status)
	assert.Equal(t, models.StatusPending, h.store.status(id))
}

func TestGenerateSuggestions_CancelledBetweenVideos(t *testing.T) {
	h := newHarness(t)
	h.seed(t, 1, models.StatusPending, day(1))
	h.seed(t, 2, models.StatusPending, day(2))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := h.engine.GenerateSuggestions(ctx, 10, "en", "")
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Empty(t, result.Outcomes)
}

func TestGenerateSuggestions_EpisodeContext(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	linked := h.seed(t, 1, models.StatusPending, day(2))
	require.NoError(t, h.store.SetEpisode(ctx, linked, strPtr("ep-1")))
	h.engine.Episodes = &episodeStub{episodes: map[string]*enrichment.Episode{
		"ep-1": {EpisodeID: "ep-1", Topics: []string{"budget"}},
	}}

	_, err := h.engine.GenerateSuggestions(ctx, 10, "en", "")
	require.NoError(t, err)
	require.Len(t, h.gen.contexts, 1)
	require.NotNil(t, h.gen.contexts[0].Episode)
	assert.Equal(t, "ep-1", h.gen.contexts[0].Episode.EpisodeID)

	t.Run("lookup failure means no context", func(t *testing.T) {
		other := h.seed(t, 2, models.StatusPending, day(1))
		require.NoError(t, h.store.SetEpisode(ctx, other, strPtr("ep-2")))
		h.engine.Episodes = &episodeStub{err: errors.New("sqlite locked")}

		result, err := h.engine.GenerateSuggestions(ctx, 10, "en", "")
		require.NoError(t, err)
		assert.Equal(t, 1, result.Count())
		assert.Nil(t, h.gen.contexts[1].Episode)
	})
}

func TestGenerateSuggestionsForVideo(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	n, err := h.engine.GenerateSuggestionsForVideo(ctx, "zzzzzzzzzzz", "en")
	require.NoError(t, err)
	assert.Zero(t, n)

	id := h.seed(t, 1, models.StatusPending, day(1))
	n, err = h.engine.GenerateSuggestionsForVideo(ctx, id, "en")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = h.engine.GenerateSuggestionsForVideo(ctx, id, "fr")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "a suggested video can get another suggestion")

	history, err := h.engine.History(ctx, id, "")
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.Equal(t, "fr", history[0].LanguageCode)

	require.NoError(t, h.engine.Approve(ctx, id))
	n, err = h.engine.GenerateSuggestionsForVideo(ctx, id, "en")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "an approved video is reopened and drafted again")
	assert.Equal(t, models.StatusSuggested, h.store.status(id))
	assert.Equal(t,
		[]models.Status{
			models.StatusPending, models.StatusSuggested, models.StatusSuggested,
			models.StatusApproved, models.StatusPending, models.StatusSuggested,
		},
		h.events.path(id))
}

func TestGeneratePendingVideo(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	pending := h.seed(t, 1, models.StatusPending, day(1))
	n, err := h.engine.GeneratePendingVideo(ctx, pending, "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, models.StatusSuggested, h.store.status(pending))

	t.Run("already suggested gets no duplicate", func(t *testing.T) {
		n, err := h.engine.GeneratePendingVideo(ctx, pending, "")
		require.NoError(t, err)
		assert.Zero(t, n)

		history, err := h.engine.History(ctx, pending, "")
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})

	t.Run("applied is left alone", func(t *testing.T) {
		applied := h.seed(t, 2, models.StatusApplied, day(2))
		n, err := h.engine.GeneratePendingVideo(ctx, applied, "")
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Equal(t, models.StatusApplied, h.store.status(applied))
	})

	t.Run("unknown video", func(t *testing.T) {
		n, err := h.engine.GeneratePendingVideo(ctx, videoID(99), "")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("locked video is retried", func(t *testing.T) {
		id := h.seed(t, 3, models.StatusPending, day(3))
		unlock, ok, err := h.locker.TryLock(ctx, id)
		require.NoError(t, err)
		require.True(t, ok)
		defer unlock()

		_, err = h.engine.GeneratePendingVideo(ctx, id, "")
		assert.ErrorIs(t, err, ErrVideoLocked)
	})
}

func TestPendingByPriority(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	newest := h.seed(t, 1, models.StatusPending, day(20))
	oldest := h.seed(t, 2, models.StatusPending, day(2))
	h.seed(t, 3, models.StatusSuggested, day(1))

	videos, err := h.engine.PendingByPriority(ctx, models.PriorityOldest, 1)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, oldest, videos[0].VideoID)

	videos, err = h.engine.PendingByPriority(ctx, "", 5)
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, newest, videos[0].VideoID)
}

func TestFetchAndProcessVideo(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.src.videos = []*models.Video{models.NewVideo(videoID(7), testChannelID, "Seven", "d", nil, day(7))}

	n, err := h.engine.FetchAndProcessVideo(ctx, videoID(7), "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, models.StatusSuggested, h.store.status(videoID(7)))

	n, err = h.engine.FetchAndProcessVideo(ctx, videoID(8), "")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFetchAndProcessVideo_ReopensAppliedVideo(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	id := h.seed(t, 4, models.StatusApplied, day(4))
	h.suggest(t, id, "en", "applied title")
	h.src.videos = []*models.Video{models.NewVideo(id, testChannelID, "Refreshed title", "d", nil, day(4))}

	n, err := h.engine.FetchAndProcessVideo(ctx, id, "en")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, models.StatusSuggested, h.store.status(id))
	assert.Equal(t, []models.Status{models.StatusPending, models.StatusSuggested}, h.events.path(id))

	history, err := h.engine.History(ctx, id, "en")
	require.NoError(t, err)
	assert.Len(t, history, 2, "earlier suggestions stay as history")

	v, err := h.engine.Video(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Refreshed title", v.TitleOriginal)
}

func TestApplySuggestions_DryRun(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	id := h.seed(t, 1, models.StatusApproved, day(1))
	h.suggest(t, id, "en", "New title")

	h.sink.On("UpdateMetadata", mock.Anything, id, mock.Anything,
		models.ApplyOptions{DryRun: true, RequireConfirmation: false}).
		Return(&models.ApplyOutcome{DryRun: true}, nil).Once()

	result, err := h.engine.ApplySuggestions(ctx, 10, true)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Count())
	assert.Equal(t, OutcomeDryRun, result.Outcomes[0].Status)
	assert.Equal(t, models.StatusApproved, h.store.status(id))
	changes, err := h.engine.AppliedChanges(ctx, id, 10)
	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.Empty(t, h.events.events)
	h.sink.AssertExpectations(t)
}

func TestApplySuggestions_Live(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ok := h.seed(t, 1, models.StatusApproved, day(5))
	declined := h.seed(t, 2, models.StatusApproved, day(4))
	broken := h.seed(t, 3, models.StatusApproved, day(3))
	noSuggestion := h.seed(t, 4, models.StatusApproved, day(2))

	h.suggest(t, ok, "en", "Old title")
	latest := h.suggest(t, ok, "fr", "Newest title")
	h.suggest(t, declined, "en", "Declined title")
	h.suggest(t, broken, "en", "Broken title")

	live := models.ApplyOptions{DryRun: false, RequireConfirmation: true}
	h.sink.On("UpdateMetadata", mock.Anything, ok, latest.Changes(), live).
		Return(&models.ApplyOutcome{
			Applied: true,
			Before:  models.MetadataSnapshot{Title: "Title " + ok},
			After:   models.MetadataSnapshot{Title: "Newest title"},
		}, nil).Once()
	h.sink.On("UpdateMetadata", mock.Anything, declined, mock.Anything, live).
		Return(&models.ApplyOutcome{Declined: true}, nil).Once()
	h.sink.On("UpdateMetadata", mock.Anything, broken, mock.Anything, live).
		Return(nil, errors.New("videos.update: 500")).Once()

	result, err := h.engine.ApplySuggestions(ctx, 10, false)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Count())
	byID := map[string]Outcome{}
	for _, o := range result.Outcomes {
		byID[o.VideoID] = o
	}
	assert.Equal(t, OutcomeSuccess, byID[ok].Status)
	assert.Equal(t, OutcomeFailed, byID[declined].Status)
	assert.Equal(t, ErrConfirmationDeclined.Error(), byID[declined].Reason)
	assert.Equal(t, OutcomeFailed, byID[broken].Status)
	assert.Equal(t, OutcomeSkipped, byID[noSuggestion].Status)

	assert.Equal(t, models.StatusApplied, h.store.status(ok))
	assert.Equal(t, models.StatusApproved, h.store.status(declined))
	assert.Equal(t, models.StatusApproved, h.store.status(broken))
	assert.Equal(t, models.StatusApproved, h.store.status(noSuggestion))

	changes, err := h.engine.AppliedChanges(ctx, ok, 10)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, latest.ID, *changes[0].SuggestionID)
	assert.Equal(t, "Newest title", changes[0].After.Title)

	h.sink.AssertExpectations(t)
}

func TestApplySuggestions_QuotaExhaustedStopsBatch(t *testing.T) {
	h := newHarness(t)
	first := h.seed(t, 1, models.StatusApproved, day(2))
	second := h.seed(t, 2, models.StatusApproved, day(1))
	h.suggest(t, first, "en", "a")
	h.suggest(t, second, "en", "b")

	h.sink.On("UpdateMetadata", mock.Anything, first, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("videos.update: %w", quota.ErrExhausted)).Once()

	result, err := h.engine.ApplySuggestions(context.Background(), 10, false)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, result.Outcomes[0].Status)
	assert.Equal(t, OutcomeSkipped, result.Outcomes[1].Status)
	h.sink.AssertNumberOfCalls(t, "UpdateMetadata", 1)
}

func TestApplySuggestions_NoSink(t *testing.T) {
	h := newHarness(t)
	h.engine.Sink = nil
	_, err := h.engine.ApplySuggestions(context.Background(), 10, true)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestApprove(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	pending := h.seed(t, 1, models.StatusPending, day(1))
	err := h.engine.Approve(ctx, pending)
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, models.StatusPending, terr.From)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	suggested := h.seed(t, 2, models.StatusSuggested, day(1))
	require.NoError(t, h.engine.Approve(ctx, suggested))
	assert.Equal(t, models.StatusApproved, h.store.status(suggested))

	assert.True(t, db.IsNotFound(h.engine.Approve(ctx, "zzzzzzzzzzz")))
}

func TestReject(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	id := h.seed(t, 1, models.StatusApproved, day(1))
	h.suggest(t, id, "en", "one")
	h.suggest(t, id, "fr", "two")

	n, err := h.engine.Reject(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, models.StatusPending, h.store.status(id))

	latest, err := h.engine.LatestSuggestion(ctx, id, "")
	require.NoError(t, err)
	assert.Nil(t, latest)

	t.Run("applied videos cannot be rejected", func(t *testing.T) {
		applied := h.seed(t, 2, models.StatusApplied, day(1))
		h.suggest(t, applied, "en", "kept")

		_, err := h.engine.Reject(ctx, applied)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		history, err := h.engine.History(ctx, applied, "")
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})
}

func TestRegenerate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	id := h.seed(t, 1, models.StatusApproved, day(1))
	h.suggest(t, id, "en", "first")

	s, err := h.engine.Regenerate(ctx, id, "en")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, models.StatusSuggested, h.store.status(id))

	history, err := h.engine.History(ctx, id, "en")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, s.ID, history[0].ID)

	assert.Equal(t,
		[]models.Status{models.StatusApproved, models.StatusPending, models.StatusSuggested},
		h.events.path(id))

	applied := h.seed(t, 2, models.StatusApplied, day(1))
	_, err = h.engine.Regenerate(ctx, applied, "en")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestFullLifecycleIsMonotonic(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t, 1, models.StatusPending, day(1))

	_, err := h.engine.GenerateSuggestions(ctx, 10, "en", "")
	require.NoError(t, err)
	require.NoError(t, h.engine.Approve(ctx, id))

	h.sink.On("UpdateMetadata", mock.Anything, id, mock.Anything, mock.Anything).
		Return(&models.ApplyOutcome{Applied: true}, nil).Once()
	_, err = h.engine.ApplySuggestions(ctx, 10, false)
	require.NoError(t, err)

	assert.Equal(t,
		[]models.Status{models.StatusPending, models.StatusSuggested, models.StatusApproved, models.StatusApplied},
		h.events.path(id))

	// Nothing moves an applied video through the batch operations.
	result, err := h.engine.GenerateSuggestions(ctx, 10, "en", "")
	require.NoError(t, err)
	assert.Empty(t, result.Outcomes)
	result, err = h.engine.ApplySuggestions(ctx, 10, false)
	require.NoError(t, err)
	assert.Empty(t, result.Outcomes)
	assert.Equal(t, models.StatusApplied, h.store.status(id))
}

func TestStatsAndLink(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.seed(t, 1, models.StatusPending, day(1))
	h.seed(t, 2, models.StatusPending, day(1))
	id := h.seed(t, 3, models.StatusApplied, day(1))

	st, err := h.engine.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 2, st.Counts[models.StatusPending])
	assert.Equal(t, 0, st.Counts[models.StatusApproved])

	require.NoError(t, h.engine.LinkEpisode(ctx, id, "ep-9"))
	v, err := h.engine.Video(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, v.EpisodeID)
	assert.Equal(t, "ep-9", *v.EpisodeID)

	require.NoError(t, h.engine.LinkEpisode(ctx, id, ""))
	v, err = h.engine.Video(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, v.EpisodeID)
}

func strPtr(s string) *string { return &s }
