package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

// gin.Context 中使用的键
const (
	RequestIDKey   = "request_id"
	ClaimsKey      = "user"
	AuthEnabledKey = "auth_enabled"
)

const RequestIDHeader = "X-Request-ID"
