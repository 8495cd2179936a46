package model

type UserRole string

const (
	RoleDoctor       UserRole = "doctor"
	RoleAdmin        UserRole = "admin"
	RoleMedicalCoder UserRole = "medical_coder"
	RoleAuditor      UserRole = "auditor"
)

type User struct {
	Base
	Username     string   `json:"username" db:"username"`
	Email        string   `json:"email" db:"email"`
	Role         UserRole `json:"role" db:"role"`
	PasswordHash string   `json:"-" db:"password_hash"`
}

// Actor converts a stored user into the request-scoped identity.
func (u *User) Actor() *Actor {
	return &Actor{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     string(u.Role),
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
