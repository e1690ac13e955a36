package models

import "time"

// User roles.
const (
	RoleCustomer = "Customer"
	RoleSeller   = "Seller"
	RoleAdmin    = "Admin"
)

// Auth providers.
const (
	AuthProviderEmail  = "email"
	AuthProviderGoogle = "google"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Address  string `json:"address"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type GoogleSignInRequest struct {
	IDToken  string `json:"idToken" binding:"required"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL"`
}

type User struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	HashedPassword []byte     `json:"-"`
	Address        *string    `json:"address,omitempty"`
	Role           string     `json:"role"`
	GoogleID       *string    `json:"-"`
	PhotoURL       *string    `json:"photoURL,omitempty"`
	AuthProvider   string     `json:"authProvider"`
	EmailVerified  bool       `json:"emailVerified"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
