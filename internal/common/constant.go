package common

// Roles a user account can hold.
const (
	RoleUser         = "user"
	RoleProfessional = "professional"
	RoleAdmin        = "admin"
)

// AuthorizationHeaderName carries "Bearer <access token>" on API requests.
const AuthorizationHeaderName = "Authorization"

// MaxUploadSize is the ceiling for a single uploaded file (10 MiB).
const MaxUploadSize int64 = 10 << 20
