package model

// UserRole is carried in the bearer token; accounts live in the identity
// service.
type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)
