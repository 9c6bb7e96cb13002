package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the roles recognised by RBAC.
type UserRole string

const (
	RoleSuperAdmin    UserRole = "SUPERADMIN"
	RoleAdmin         UserRole = "ADMIN"
	RoleAcademicStaff UserRole = "ACADEMIC_STAFF"
	RoleTeacher       UserRole = "TEACHER"
)

// JWTClaims represents the access token payload issued by the identity service.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// Actor identifies who triggered an operation and from where.
type Actor struct {
	UserID    string
	Role      UserRole
	IPAddress string
	UserAgent string
}
