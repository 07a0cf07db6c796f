package post

import "errors"

var (
	// ErrPostNotFound is returned when a post is not found or not visible
	ErrPostNotFound = errors.New("post not found")

	// ErrSlugExists is returned when the slug is already used in the same locale
	ErrSlugExists = errors.New("slug already exists for this locale")

	// ErrInvalidSlug is returned for slugs that are not lowercase words joined by hyphens
	ErrInvalidSlug = errors.New("invalid slug")

	// ErrUnsupportedLocale is returned for locales the blog is not configured for
	ErrUnsupportedLocale = errors.New("unsupported locale")

	// ErrTitleRequired is returned when the title is blank
	ErrTitleRequired = errors.New("title is required")

	// ErrInvalidStatus is returned for unknown publication states
	ErrInvalidStatus = errors.New("invalid status")
)
