package utils

import "github.com/gofiber/fiber/v2"

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Pagination is a 1-based page request
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// NewPagination clamps page and limit to sane values
func NewPagination(page, limit int) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return Pagination{Page: page, Limit: limit}
}

// ParsePagination reads ?page= and ?limit= from the request
func ParsePagination(c *fiber.Ctx) Pagination {
	return NewPagination(c.QueryInt("page", 1), c.QueryInt("limit", defaultPageLimit))
}

// Offset returns the number of rows to skip
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}
