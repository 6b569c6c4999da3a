package common

const (
	// DefaultMaxUploadBytes caps multipart bodies when no limit is configured.
	DefaultMaxUploadBytes = 25 << 20
	// MultipartMemoryBytes is kept in memory while parsing a form; larger parts spill to disk.
	MultipartMemoryBytes = 8 << 20
	// MaxJSONRequestBody limits JSON request bodies of the operator API.
	MaxJSONRequestBody = 1 << 20
)
