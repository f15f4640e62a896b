package api

// API limits and constants.
const (
	// DefaultMaxUploadSize caps multipart bodies when no limit is configured (15 MB).
	DefaultMaxUploadSize = 15 << 20

	// multipartMemory is how much of a multipart body is buffered before spilling to disk.
	multipartMemory = 8 << 20
)

// CacheOneWeek is the Cache-Control value for immutable media.
const CacheOneWeek = "public, max-age=604800"

// Route prefixes.
const (
	authPrefix      = "/api/v1/auth"
	wallpaperPrefix = "/api/v1/wallpapers"
	feedbackPrefix  = "/api/v1/feedback"

	// MediaPrefix serves assets written by the local media backend.
	MediaPrefix = "/media"
)

// bearerSecurity marks an operation as requiring a PASETO bearer token.
var bearerSecurity = []map[string][]string{{"bearer": {}}}
