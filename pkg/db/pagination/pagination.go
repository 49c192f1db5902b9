package pagination

import (
	"strconv"
	"strings"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Pagination binds the common paging query parameters.
type Pagination struct {
	PageToken string `form:"page_token" json:"page_token"`
	PageSize  int    `form:"page_size" json:"page_size"`
}

// PageInfo is embedded in list responses.
type PageInfo struct {
	NextPageToken string `json:"next_page_token,omitempty"`
	HasMore       bool   `json:"has_more"`
}

// Limit returns the effective page size.
func (p Pagination) Limit() int {
	if p.PageSize <= 0 {
		return defaultPageSize
	}
	if p.PageSize > maxPageSize {
		return maxPageSize
	}
	return p.PageSize
}

// Cursor parses the page token into an id cursor; zero means first page.
func (p Pagination) Cursor() int64 {
	token := strings.TrimSpace(p.PageToken)
	if token == "" {
		return 0
	}
	cursor, err := strconv.ParseInt(token, 10, 64)
	if err != nil || cursor < 0 {
		return 0
	}
	return cursor
}

// Token formats an id cursor as a page token.
func Token(cursor int64) string {
	if cursor <= 0 {
		return ""
	}
	return strconv.FormatInt(cursor, 10)
}
