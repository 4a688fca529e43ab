package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
)

const (
	testChannelID = "UCabcdefghijklmnopqrstuv"
	testHandle    = "@TheNewsForum"
	testUploads   = "UUabcdefghijklmnopqrstuv"
)

// fakeYouTube serves the handful of Data API endpoints the package calls.
type fakeYouTube struct {
	mu            sync.Mutex
	uploads       []string
	videos        map[string]*youtube.Video
	calls         map[string]int
	quotaExceeded bool
}

func newFakeYouTube(n int) *fakeYouTube {
	f := &fakeYouTube{videos: map[string]*youtube.Video{}, calls: map[string]int{}}
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("vid%08d", i)
		f.uploads = append(f.uploads, id)
		f.videos[id] = &youtube.Video{
			Id: id,
			Snippet: &youtube.VideoSnippet{
				ChannelId:   testChannelID,
				Title:       "Original title " + id,
				Description: "Original description",
				Tags:        []string{"news", "canada"},
				CategoryId:  "25",
				PublishedAt: fmt.Sprintf("2025-01-%02dT12:00:00Z", (i%28)+1),
			},
		}
	}
	return f
}

func (f *fakeYouTube) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeYouTube) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	q := r.URL.Query()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.HasSuffix(r.URL.Path, "/channels"):
		f.calls["channels.list"]++
		resp := &youtube.ChannelListResponse{}
		if q.Get("forHandle") == strings.TrimPrefix(testHandle, "@") || q.Get("id") == testChannelID {
			resp.Items = []*youtube.Channel{{
				Id:      testChannelID,
				Snippet: &youtube.ChannelSnippet{Title: "The News Forum"},
				ContentDetails: &youtube.ChannelContentDetails{
					RelatedPlaylists: &youtube.ChannelContentDetailsRelatedPlaylists{Uploads: testUploads},
				},
			}}
		}
		_ = json.NewEncoder(w).Encode(resp)

	case strings.HasSuffix(r.URL.Path, "/playlistItems"):
		f.calls["playlistItems.list"]++
		offset, _ := strconv.Atoi(q.Get("pageToken"))
		size, _ := strconv.Atoi(q.Get("maxResults"))
		if size <= 0 {
			size = 5
		}
		end := min(offset+size, len(f.uploads))

		resp := &youtube.PlaylistItemListResponse{}
		for _, id := range f.uploads[offset:end] {
			resp.Items = append(resp.Items, &youtube.PlaylistItem{
				ContentDetails: &youtube.PlaylistItemContentDetails{VideoId: id},
			})
		}
		if end < len(f.uploads) {
			resp.NextPageToken = strconv.Itoa(end)
		}
		_ = json.NewEncoder(w).Encode(resp)

	case strings.HasSuffix(r.URL.Path, "/videos") && r.Method == http.MethodGet:
		f.calls["videos.list"]++
		resp := &youtube.VideoListResponse{}
		for _, raw := range q["id"] {
			for _, id := range strings.Split(raw, ",") {
				if v, ok := f.videos[id]; ok {
					snippet := *v.Snippet
					snippet.Tags = append([]string{}, v.Snippet.Tags...)
					resp.Items = append(resp.Items, &youtube.Video{Id: v.Id, Snippet: &snippet})
				}
			}
		}
		_ = json.NewEncoder(w).Encode(resp)

	case strings.HasSuffix(r.URL.Path, "/videos") && r.Method == http.MethodPut:
		if f.quotaExceeded {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quota exceeded","errors":[{"reason":"quotaExceeded","message":"quota exceeded"}]}}`))
			return
		}
		f.calls["videos.update"]++
		var v youtube.Video
		if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.videos[v.Id] = &v
		_ = json.NewEncoder(w).Encode(&v)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestService(t *testing.T, f *fakeYouTube) *youtube.Service {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	svc, err := youtube.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return svc
}

type fakeQuota struct {
	mu        sync.Mutex
	exhausted bool
	recorded  map[string]int
}

func newFakeQuota() *fakeQuota {
	return &fakeQuota{recorded: map[string]int{}}
}

func (q *fakeQuota) CheckQuotaAvailable(_ context.Context, _ int) (bool, *models.QuotaInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.exhausted, &models.QuotaInfo{}, nil
}

func (q *fakeQuota) RecordQuotaUsage(_ context.Context, cost int, op string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.recorded[op] += cost
	return nil
}
