package services

import "errors"

var (
	// ErrEmailTaken signals a registration against an already-used email.
	ErrEmailTaken = errors.New("user with this email already exists")

	// ErrInvalidCredentials covers both unknown email and wrong password
	// on login. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrWrongPassword signals a password change with an incorrect
	// current password.
	ErrWrongPassword = errors.New("current password is incorrect")

	// ErrNotTweetOwner signals a tweet delete attempted by someone
	// other than its author.
	ErrNotTweetOwner = errors.New("not the tweet owner")
)
