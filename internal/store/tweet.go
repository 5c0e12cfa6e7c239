package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/chirpnet/apiserver/types"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// TweetRepository handles persistence for tweets.
type TweetRepository struct {
	db *sql.DB
}

func NewTweetRepository(db *sql.DB) *TweetRepository {
	return &TweetRepository{db: db}
}

func (r *TweetRepository) Create(ctx context.Context, tweet types.Tweet) (types.Tweet, error) {
	now := time.Now()
	tweet.CreatedAt = now
	tweet.UpdatedAt = now
	if tweet.ID == "" {
		tweet.ID = uuid.NewString()
	}
	if tweet.SharedWith == nil {
		tweet.SharedWith = []string{}
	}

	const query = `
		INSERT INTO tweets (id, content, author_id, shared_with, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		tweet.ID,
		tweet.Content,
		tweet.Author.ID,
		pq.Array(tweet.SharedWith),
		tweet.CreatedAt,
		tweet.UpdatedAt,
	)
	if err != nil {
		return types.Tweet{}, err
	}
	return tweet, nil
}

func (r *TweetRepository) Get(ctx context.Context, id string) (types.Tweet, error) {
	const query = selectTweet + ` WHERE t.id = $1`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return types.Tweet{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return types.Tweet{}, err
		}
		return types.Tweet{}, ErrNotFound
	}
	return scanTweet(rows)
}

// ListByAuthor returns the author's tweets, newest first.
func (r *TweetRepository) ListByAuthor(ctx context.Context, authorID string) ([]types.Tweet, error) {
	const query = selectTweet + `
		WHERE t.author_id = $1
		ORDER BY t.created_at DESC`
	return r.list(ctx, query, authorID)
}

// ListSharedWith returns tweets shared with the given user, newest first.
func (r *TweetRepository) ListSharedWith(ctx context.Context, userID string) ([]types.Tweet, error) {
	const query = selectTweet + `
		WHERE t.shared_with @> ARRAY[$1]::uuid[]
		ORDER BY t.created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *TweetRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tweets WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

const selectTweet = `
	SELECT t.id, t.content, t.shared_with, t.created_at, t.updated_at,
	       u.id, u.name, u.email
	FROM tweets t
	JOIN users u ON u.id = t.author_id`

func (r *TweetRepository) list(ctx context.Context, query string, args ...any) ([]types.Tweet, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tweets := make([]types.Tweet, 0)
	for rows.Next() {
		tweet, err := scanTweet(rows)
		if err != nil {
			return nil, err
		}
		tweets = append(tweets, tweet)
	}
	return tweets, rows.Err()
}

func scanTweet(rows *sql.Rows) (types.Tweet, error) {
	var tweet types.Tweet
	var sharedWith []string
	err := rows.Scan(
		&tweet.ID,
		&tweet.Content,
		pq.Array(&sharedWith),
		&tweet.CreatedAt,
		&tweet.UpdatedAt,
		&tweet.Author.ID,
		&tweet.Author.Name,
		&tweet.Author.Email,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Tweet{}, ErrNotFound
		}
		return types.Tweet{}, err
	}
	if sharedWith == nil {
		sharedWith = []string{}
	}
	tweet.SharedWith = sharedWith
	return tweet, nil
}
