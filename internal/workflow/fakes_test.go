package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/enrichment"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/seo"
)

// memStore is an in-memory registry implementing the repository interfaces
// and TxRunner. A failed transaction restores the previous state.
type memStore struct {
	mu          sync.Mutex
	videos      map[string]*models.Video
	suggestions []*models.Suggestion
	changes     []*models.AppliedChange
	channels    map[string]*models.Channel
	nextID      int64
	clock       time.Time

	failCreateSuggestion error
}

func newMemStore() *memStore {
	return &memStore{
		videos:   map[string]*models.Video{},
		channels: map[string]*models.Channel{},
		clock:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func copyVideo(v *models.Video) *models.Video {
	c := *v
	c.TagsOriginal = append([]string{}, v.TagsOriginal...)
	return &c
}

func (m *memStore) ExecTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	videos := make(map[string]*models.Video, len(m.videos))
	for k, v := range m.videos {
		videos[k] = copyVideo(v)
	}
	suggestions := append([]*models.Suggestion{}, m.suggestions...)
	changes := append([]*models.AppliedChange{}, m.changes...)
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.videos, m.suggestions, m.changes = videos, suggestions, changes
		m.mu.Unlock()
		return err
	}
	return nil
}

// VideoRepository

func (m *memStore) UpsertVideo(_ context.Context, v *models.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	row := copyVideo(v)
	if old, ok := m.videos[v.VideoID]; ok {
		if row.Status == "" {
			row.Status = old.Status
		}
		if row.EpisodeID == nil {
			row.EpisodeID = old.EpisodeID
		}
		row.CreatedAt = old.CreatedAt
	} else if row.Status == "" {
		row.Status = models.StatusPending
	}
	m.videos[v.VideoID] = row
	return nil
}

func (m *memStore) GetVideoByID(_ context.Context, id string) (*models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return nil, fmt.Errorf("get video: %w", db.ErrNotFound)
	}
	return copyVideo(v), nil
}

func publishedDesc(a, b *models.Video) bool {
	switch {
	case a.PublishedAt == nil && b.PublishedAt == nil:
		return a.VideoID < b.VideoID
	case a.PublishedAt == nil:
		return false
	case b.PublishedAt == nil:
		return true
	case !a.PublishedAt.Equal(*b.PublishedAt):
		return a.PublishedAt.After(*b.PublishedAt)
	}
	return a.VideoID < b.VideoID
}

func (m *memStore) sorted(filter func(*models.Video) bool, less func(a, b *models.Video) bool, limit int) []*models.Video {
	var out []*models.Video
	for _, v := range m.videos {
		if filter(v) {
			out = append(out, copyVideo(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *memStore) GetVideosByStatus(_ context.Context, status *models.Status, limit int) ([]*models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(v *models.Video) bool { return status == nil || v.Status == *status }, publishedDesc, limit), nil
}

func (m *memStore) GetPendingByPriority(_ context.Context, p models.Priority, limit int) ([]*models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	less := publishedDesc
	switch p {
	case models.PriorityOldest:
		less = func(a, b *models.Video) bool {
			switch {
			case a.PublishedAt == nil:
				return false
			case b.PublishedAt == nil:
				return true
			}
			return a.PublishedAt.Before(*b.PublishedAt)
		}
	case models.PriorityLinked:
		less = func(a, b *models.Video) bool {
			if (a.EpisodeID != nil) != (b.EpisodeID != nil) {
				return a.EpisodeID != nil
			}
			return publishedDesc(a, b)
		}
	}
	return m.sorted(func(v *models.Video) bool { return v.Status == models.StatusPending }, less, limit), nil
}

func (m *memStore) MarkStatus(_ context.Context, id string, s models.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return db.ErrNotFound
	}
	v.Status = s
	return nil
}

func (m *memStore) TransitionStatus(_ context.Context, id string, from []models.Status, to models.Status) (models.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return "", fmt.Errorf("transition status: %w", db.ErrNotFound)
	}
	if !statusIn(v.Status, from) {
		return v.Status, fmt.Errorf("transition status: %w", db.ErrStatusConflict)
	}
	prev := v.Status
	v.Status = to
	return prev, nil
}

func (m *memStore) CountsByStatus(_ context.Context) (map[models.Status]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[models.Status]int{}
	for _, v := range m.videos {
		counts[v.Status]++
	}
	return counts, nil
}

func (m *memStore) SetEpisode(_ context.Context, id string, ep *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return db.ErrNotFound
	}
	v.EpisodeID = ep
	return nil
}

// SuggestionRepository

func (m *memStore) CreateSuggestion(_ context.Context, s *models.Suggestion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreateSuggestion != nil {
		return m.failCreateSuggestion
	}
	m.nextID++
	m.clock = m.clock.Add(time.Second)
	s.ID = m.nextID
	s.CreatedAt = m.clock
	c := *s
	m.suggestions = append(m.suggestions, &c)
	return nil
}

func (m *memStore) history(videoID, lang string) []*models.Suggestion {
	var out []*models.Suggestion
	for _, s := range m.suggestions {
		if s.VideoID == videoID && (lang == "" || s.LanguageCode == lang) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (m *memStore) GetLatest(_ context.Context, videoID, lang string) (*models.Suggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.history(videoID, lang)
	if len(h) == 0 {
		return nil, db.ErrNotFound
	}
	return h[0], nil
}

func (m *memStore) GetLatestAnyLanguage(ctx context.Context, videoID string) (*models.Suggestion, error) {
	return m.GetLatest(ctx, videoID, "")
}

func (m *memStore) GetHistory(_ context.Context, videoID, lang string) ([]*models.Suggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history(videoID, lang), nil
}

func (m *memStore) DeleteAllForVideo(_ context.Context, videoID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.suggestions[:0:0]
	var n int64
	for _, s := range m.suggestions {
		if s.VideoID == videoID {
			n++
			continue
		}
		kept = append(kept, s)
	}
	m.suggestions = kept
	return n, nil
}

// AppliedChangeRepository

func (m *memStore) CreateAppliedChange(_ context.Context, c *models.AppliedChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	m.changes = append(m.changes, c)
	return nil
}

func (m *memStore) GetChangesByVideoID(_ context.Context, videoID string, _ int) ([]*models.AppliedChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AppliedChange
	for _, c := range m.changes {
		if c.VideoID == videoID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) GetRecentChanges(_ context.Context, _ int) ([]*models.AppliedChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.AppliedChange{}, m.changes...), nil
}

// ChannelRepository

func (m *memStore) UpsertChannel(_ context.Context, c *models.Channel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.channels[strings.ToLower(c.Handle)] = &cp
	return nil
}

func (m *memStore) GetChannelByHandle(_ context.Context, handle string) (*models.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.channels[strings.ToLower(handle)]
	if !ok {
		return nil, db.ErrNotFound
	}
	return c, nil
}

func (m *memStore) ListChannels(_ context.Context) ([]*models.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Channel
	for _, c := range m.channels {
		out = append(out, c)
	}
	return out, nil
}

// status returns the stored status of a video, or "" when missing.
func (m *memStore) status(id string) models.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.videos[id]; ok {
		return v.Status
	}
	return ""
}

// memLocker is a process-local VideoLocker.
type memLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemLocker() *memLocker { return &memLocker{held: map[string]bool{}} }

func (l *memLocker) TryLock(_ context.Context, id string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[id] {
		return nil, false, nil
	}
	l.held[id] = true
	return func() {
		l.mu.Lock()
		delete(l.held, id)
		l.mu.Unlock()
	}, true, nil
}

// stubGenerator derives fields from the video title.
type stubGenerator struct {
	mu       sync.Mutex
	fail     map[string]error
	contexts []*seo.VideoContext
}

func (g *stubGenerator) Generate(ctx context.Context, vc *seo.VideoContext) (*models.SuggestionFields, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.contexts = append(g.contexts, vc)
	if err := g.fail[vc.Video.VideoID]; err != nil {
		return nil, err
	}
	return &models.SuggestionFields{
		Title:       "Better: " + vc.Video.TitleOriginal,
		Description: "Better description",
		Tags:        append(append([]string{}, vc.Video.TagsOriginal...), "generated"),
		Hashtags:    []string{"#News"},
	}, nil
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) UpdateMetadata(ctx context.Context, id string, changes models.MetadataChanges, opts models.ApplyOptions) (*models.ApplyOutcome, error) {
	args := m.Called(ctx, id, changes, opts)
	out, _ := args.Get(0).(*models.ApplyOutcome)
	return out, args.Error(1)
}

type fakeSource struct {
	videos  []*models.Video
	err     error
	channel *models.Channel
}

func (s *fakeSource) ListVideos(_ context.Context, _ string, limit int) ([]*models.Video, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []*models.Video
	for i, v := range s.videos {
		if i == limit {
			break
		}
		out = append(out, copyVideo(v))
	}
	return out, nil
}

func (s *fakeSource) FetchVideo(_ context.Context, id string) (*models.Video, error) {
	for _, v := range s.videos {
		if v.VideoID == id {
			return copyVideo(v), nil
		}
	}
	return nil, nil
}

func (s *fakeSource) ResolveChannel(context.Context, string) (*models.Channel, error) {
	if s.channel == nil {
		return nil, fmt.Errorf("unknown channel")
	}
	return s.channel, nil
}

type episodeStub struct {
	episodes map[string]*enrichment.Episode
	err      error
}

func (e *episodeStub) GetEpisode(_ context.Context, id string) (*enrichment.Episode, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.episodes[id], nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*models.StatusChangeEvent
}

func (p *recordingPublisher) PublishStatusChange(_ context.Context, e *models.StatusChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) path(videoID string) []models.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.Status
	for _, e := range p.events {
		if e.VideoID == videoID {
			if len(out) == 0 {
				out = append(out, e.From)
			}
			out = append(out, e.To)
		}
	}
	return out
}
