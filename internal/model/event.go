package model

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth   = "auth"
	EventCategoryPage   = "page"
	EventCategoryUser   = "user"
	EventCategoryMedia  = "media"
	EventCategorySystem = "system"
	EventCategoryCache  = "cache"
)
