package services

import (
	"context"

	"github.com/chirpnet/apiserver/internal/notify"
	"github.com/chirpnet/apiserver/types"
	"github.com/rs/zerolog"
)

// TweetRepository defines persistence operations for tweets.
type TweetRepository interface {
	Create(ctx context.Context, tweet types.Tweet) (types.Tweet, error)
	Get(ctx context.Context, id string) (types.Tweet, error)
	ListByAuthor(ctx context.Context, authorID string) ([]types.Tweet, error)
	ListSharedWith(ctx context.Context, userID string) ([]types.Tweet, error)
	Delete(ctx context.Context, id string) error
}

// TweetService encapsulates tweet use-cases.
type TweetService struct {
	tweets     TweetRepository
	users      UserRepository
	dispatcher notify.Dispatcher
	log        zerolog.Logger
}

func NewTweetService(tweets TweetRepository, users UserRepository, dispatcher notify.Dispatcher, log zerolog.Logger) *TweetService {
	return &TweetService{
		tweets:     tweets,
		users:      users,
		dispatcher: dispatcher,
		log:        log,
	}
}

// Create persists a tweet for the given author and fans out a notification
// to every user it is shared with. Notification failures are logged but
// never fail the creation.
func (s *TweetService) Create(ctx context.Context, authorID, content string, sharedWith []string) (types.Tweet, error) {
	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		return types.Tweet{}, err
	}

	tweet, err := s.tweets.Create(ctx, types.Tweet{
		Content: content,
		Author: types.Author{
			ID:    author.ID,
			Name:  author.Name,
			Email: author.Email,
		},
		SharedWith: sharedWith,
	})
	if err != nil {
		return types.Tweet{}, err
	}

	if len(sharedWith) > 0 && s.dispatcher != nil {
		s.notifyRecipients(ctx, author, content, sharedWith)
	}
	return tweet, nil
}

// Delete removes a tweet. Only the author may delete it.
func (s *TweetService) Delete(ctx context.Context, userID, tweetID string) error {
	tweet, err := s.tweets.Get(ctx, tweetID)
	if err != nil {
		return err
	}
	if tweet.Author.ID != userID {
		return ErrNotTweetOwner
	}
	return s.tweets.Delete(ctx, tweetID)
}

// ListByAuthor returns the user's own tweets, newest first.
func (s *TweetService) ListByAuthor(ctx context.Context, authorID string) ([]types.Tweet, error) {
	return s.tweets.ListByAuthor(ctx, authorID)
}

// ListSharedWith returns tweets shared with the user, newest first.
func (s *TweetService) ListSharedWith(ctx context.Context, userID string) ([]types.Tweet, error) {
	return s.tweets.ListSharedWith(ctx, userID)
}

func (s *TweetService) notifyRecipients(ctx context.Context, author types.User, content string, sharedWith []string) {
	recipients, err := s.users.ListByIDs(ctx, sharedWith)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to resolve notification recipients")
		return
	}

	for _, recipient := range recipients {
		n := notify.Notification{
			RecipientName:  recipient.Name,
			RecipientEmail: recipient.Email,
			AuthorName:     author.Name,
			Content:        content,
		}
		if err := s.dispatcher.Dispatch(ctx, n); err != nil {
			s.log.Error().Err(err).Str("recipient", recipient.Email).Msg("failed to dispatch share notification")
		}
	}
}
