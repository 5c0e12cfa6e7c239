package types

import "time"

// Author is the public projection of a tweet's author.
type Author struct {
	ID    string `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Email string `json:"email" db:"email"`
}

// Tweet represents a short post, optionally shared with specific users.
type Tweet struct {
	// ID is the unique identifier of the tweet (UUID).
	ID string `json:"id" db:"id"`

	// Content is the post body.
	Content string `json:"content" db:"content"`

	// Author identifies who created the tweet.
	Author Author `json:"author"`

	// SharedWith lists the IDs of users the tweet is shared with.
	SharedWith []string `json:"sharedWith" db:"shared_with"`

	// CreatedAt is the timestamp when the tweet was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the tweet.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
