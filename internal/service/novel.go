package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/novelfinder/novelfinder-go/internal/model"
	"github.com/novelfinder/novelfinder-go/internal/repository"
)

// Searcher is the third-party novel API.
type Searcher interface {
	Search(ctx context.Context, query string) (json.RawMessage, error)
	DownloadURL(query, n string) string
}

// SearchCache stores successful search payloads by query.
type SearchCache interface {
	Get(ctx context.Context, query string) (json.RawMessage, bool, error)
	Set(ctx context.Context, query string, payload json.RawMessage) error
}

// fallbackPayload is served when the novel API cannot be reached and the
// fallback is enabled.
var fallbackPayload = mustMarshal(model.SearchPayload{
	Status: "success",
	Count:  3,
	Results: []model.NovelResult{
		{Title: "示例小说一", Author: "佚名", Source: "本地示例"},
		{Title: "示例小说二", Author: "佚名", Source: "本地示例"},
		{Title: "示例小说三", Author: "佚名", Source: "本地示例"},
	},
})

// NovelService proxies search and download to the novel API.
type NovelService struct {
	users    repository.UserStore
	upstream Searcher
	cache    SearchCache
	resolve  TokenResolver
	fallback bool
}

// NewNovelService creates a new NovelService. cache may be nil.
func NewNovelService(users repository.UserStore, upstream Searcher, cache SearchCache, resolve TokenResolver, fallback bool) *NovelService {
	if resolve == nil {
		resolve = UserIDTokens
	}
	return &NovelService{
		users:    users,
		upstream: upstream,
		cache:    cache,
		resolve:  resolve,
		fallback: fallback,
	}
}

// Search returns the novel API payload for query unmodified.
func (s *NovelService) Search(ctx context.Context, query string) (model.SearchResult, error) {
	if query == "" {
		return model.SearchResult{}, ErrMissingQuery
	}

	if s.cache != nil {
		payload, ok, err := s.cache.Get(ctx, query)
		if err != nil {
			slog.WarnContext(ctx, "search cache read failed", "error", err)
		} else if ok {
			return model.SearchResult{Payload: payload, Cached: true}, nil
		}
	}

	payload, err := s.upstream.Search(ctx, query)
	if err != nil {
		slog.WarnContext(ctx, "novel search failed", "query", query, "error", err, "fallback", s.fallback)
		if s.fallback {
			return model.SearchResult{Payload: fallbackPayload, Fallback: true}, nil
		}
		return model.SearchResult{}, ErrSearchFailed
	}

	if s.cache != nil && isSuccessPayload(payload) {
		if err := s.cache.Set(ctx, query, payload); err != nil {
			slog.WarnContext(ctx, "search cache write failed", "error", err)
		}
	}

	return model.SearchResult{Payload: payload}, nil
}

// Download counts a download for the token's user and returns the novel API
// URL the browser should be redirected to.
func (s *NovelService) Download(ctx context.Context, query, n, token string) (string, error) {
	if query == "" || n == "" {
		return "", ErrMissingDownload
	}
	if token == "" {
		return "", ErrLoginRequired
	}

	userID, err := s.resolve(token)
	if err != nil || userID <= 0 {
		return "", ErrUnknownDownloader
	}

	if err := s.users.IncrementDownloads(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrUnknownDownloader
		}
		return "", err
	}

	slog.InfoContext(ctx, "download redirected", "user_id", userID, "query", query, "n", n)
	return s.upstream.DownloadURL(query, n), nil
}

// isSuccessPayload reports whether the novel API answered with status "success".
func isSuccessPayload(payload json.RawMessage) bool {
	var head struct {
		Status string `json:"status"`
	}
	return json.Unmarshal(payload, &head) == nil && head.Status == "success"
}

func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
