package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/chirpnet/apiserver/internal/auth"
	"github.com/chirpnet/apiserver/internal/services"
	"github.com/chirpnet/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxTweetLength = 280

// TweetHandler provides HTTP handlers for tweets.
type TweetHandler struct {
	tweetService *services.TweetService
}

func NewTweetHandler(tweetService *services.TweetService) *TweetHandler {
	return &TweetHandler{tweetService: tweetService}
}

// TweetRouter registers tweet routes on the given router. All routes
// require authentication.
func TweetRouter(r chi.Router, tweetService *services.TweetService, guard func(http.Handler) http.Handler) {
	handler := NewTweetHandler(tweetService)

	r.Use(guard)
	r.Post("/", handler.CreateTweet)
	r.Get("/my-tweets", handler.MyTweets)
	r.Get("/shared-with-me", handler.SharedWithMe)
	r.Delete("/{tweetID}", handler.DeleteTweet)
}

// CreateTweet creates a post for the caller, optionally shared with others.
func (h *TweetHandler) CreateTweet(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.SubjectFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateTweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	if utf8.RuneCountInString(req.Content) > maxTweetLength {
		writeError(w, http.StatusBadRequest, "content exceeds 280 characters")
		return
	}
	for _, id := range req.SharedWith {
		if _, err := uuid.Parse(id); err != nil {
			writeError(w, http.StatusBadRequest, "invalid user id in sharedWith")
			return
		}
	}

	tweet, err := h.tweetService.Create(r.Context(), userID, req.Content, req.SharedWith)
	if err != nil {
		writeServiceError(w, err, "failed to create tweet")
		return
	}

	writeData(w, http.StatusCreated, tweet)
}

// DeleteTweet removes one of the caller's tweets.
func (h *TweetHandler) DeleteTweet(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.SubjectFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	tweetID := chi.URLParam(r, "tweetID")
	if _, err := uuid.Parse(tweetID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid tweet id")
		return
	}

	if err := h.tweetService.Delete(r.Context(), userID, tweetID); err != nil {
		switch {
		case errors.Is(err, services.ErrNotTweetOwner):
			writeError(w, http.StatusForbidden, "You can only delete your own tweets")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Tweet not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to delete tweet")
		}
		return
	}

	writeMessage(w, http.StatusOK, "Tweet deleted successfully")
}

// MyTweets lists the caller's own tweets, newest first.
func (h *TweetHandler) MyTweets(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.SubjectFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	tweets, err := h.tweetService.ListByAuthor(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "failed to list tweets")
		return
	}

	writeData(w, http.StatusOK, tweets)
}

// SharedWithMe lists tweets shared with the caller, newest first.
func (h *TweetHandler) SharedWithMe(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.SubjectFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	tweets, err := h.tweetService.ListSharedWith(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "failed to list tweets")
		return
	}

	writeData(w, http.StatusOK, tweets)
}

type CreateTweetRequest struct {
	Content    string   `json:"content"`
	SharedWith []string `json:"sharedWith"`
}
