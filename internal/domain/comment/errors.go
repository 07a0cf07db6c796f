package comment

import "errors"

var (
	// ErrInvalidRequest is returned when the comment id is missing or malformed
	ErrInvalidRequest = errors.New("invalid request")

	// ErrCommentNotFound is returned for comments that do not exist or are already deleted
	ErrCommentNotFound = errors.New("comment not found")

	// ErrForbidden is returned when the caller is neither an admin nor holds an active deletion grant
	ErrForbidden = errors.New("not allowed to delete this comment")

	// ErrPostNotFound is returned when commenting on a missing or unpublished post
	ErrPostNotFound = errors.New("post not found")

	// ErrContentRequired is returned for blank comments
	ErrContentRequired = errors.New("content is required")

	// ErrContentTooLong is returned when the comment exceeds the configured length
	ErrContentTooLong = errors.New("content is too long")

	// ErrAuthorTooLong is returned when the author name exceeds the configured length
	ErrAuthorTooLong = errors.New("author name is too long")

	// ErrInvalidStatus is returned for unknown moderation filters
	ErrInvalidStatus = errors.New("invalid status filter")
)
