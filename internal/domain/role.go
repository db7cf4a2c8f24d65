package domain

// Roles carried in bearer token claims.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
