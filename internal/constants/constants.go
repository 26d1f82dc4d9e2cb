package constants

// Context keys
const (
	ContextKeyUserID = "user_id"
	ContextKeyTask   = "task"
)

// Field limits
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
	MaxCommentLength     = 2000
	MaxTagLength         = 50
	MinPasswordLength    = 8
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)
