package models

// MinPasswordLength is the shortest password a profile may be given.
const MinPasswordLength = 6

// User is an operator account. Tokens carry its id as the subject.
type User struct {
	ID           string `json:"id" gorm:"primaryKey"`
	Email        string `json:"email" gorm:"uniqueIndex"`
	Username     string `json:"username" gorm:"uniqueIndex"`
	Fullname     string `json:"fullname"`
	Role         string `json:"role"`
	PasswordHash string `json:"-" gorm:"column:password"`
}

// ProfileUpdate holds the fields a user may change about themselves.
type ProfileUpdate struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
}

// ChangePasswordRequest is the PUT /users/me/password body.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
