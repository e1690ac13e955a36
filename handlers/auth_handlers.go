// api/handlers/auth_handlers.go
package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"bazario/api/models"
	"bazario/api/store"
	"bazario/api/utils"
)

type AuthHandlers struct {
	UserStore *store.UserStore
	Google    GoogleVerifier
}

func NewAuthHandlers(userStore *store.UserStore, google GoogleVerifier) *AuthHandlers {
	return &AuthHandlers{UserStore: userStore, Google: google}
}

func (h *AuthHandlers) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body", "details": err.Error()})
		return
	}

	// 1. Check if the user's email already exists in the database.
	_, err := h.UserStore.GetUserByEmail(c.Request.Context(), req.Email)
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "User already exists with this email"})
		return
	}
	if !errors.Is(err, store.ErrUserNotFound) {
		log.Printf("ERROR: Database error during register email check: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to check user existence"})
		return
	}

	// 2. Hash the password.
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("ERROR: Failed to hash password for %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to process password"})
		return
	}

	var address *string
	if req.Address != "" {
		address = &req.Address
	}

	// 3. Store the new account.
	user, err := h.UserStore.CreateUser(c.Request.Context(), store.CreateUserParams{
		Name:         req.Name,
		Email:        req.Email,
		Password:     hashedPassword,
		Address:      address,
		Role:         models.RoleCustomer,
		AuthProvider: models.AuthProviderEmail,
	})
	if err != nil {
		log.Printf("ERROR: Failed to create user in DB for email %s: %v", req.Email, err)
		if errors.Is(err, store.ErrUserExists) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "User already exists with this email"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to register user"})
		}
		return
	}

	tokenString, err := utils.GenerateJWT(user)
	if err != nil {
		log.Printf("ERROR: Failed to generate JWT for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to generate authentication token"})
		return
	}

	log.Printf("User registered: ID=%d, Email=%s", user.ID, user.Email)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Registration successful",
		"user":    user,
		"token":   tokenString,
	})
}

// Login handles user authentication and JWT token creation.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body", "details": err.Error()})
		return
	}

	user, err := h.UserStore.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		log.Printf("Login failed for email %s: %v", req.Email, err)
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
		return
	}

	err = bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(req.Password))
	if err != nil {
		log.Printf("Login failed for email %s: password mismatch", req.Email)
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
		return
	}

	if err := h.UserStore.UpdateLastLogin(c.Request.Context(), user.ID); err != nil {
		log.Printf("Failed to update last login for user %d: %v", user.ID, err)
	}

	tokenString, err := utils.GenerateJWT(user)
	if err != nil {
		log.Printf("ERROR: Failed to generate JWT for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to generate authentication token"})
		return
	}

	h.setAuthCookie(c, tokenString)

	log.Printf("User logged in: ID=%d, Email=%s. JWT issued.", user.ID, user.Email)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"user":    user,
		"token":   tokenString,
	})
}

// GoogleSignIn verifies a Google ID token, links or creates the matching
// account, and issues a JWT.
func (h *AuthHandlers) GoogleSignIn(c *gin.Context) {
	var req models.GoogleSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "ID token is required"})
		return
	}

	payload, err := h.Google.Verify(c.Request.Context(), req.IDToken)
	if err != nil {
		log.Printf("Google token verification failed: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid Google token"})
		return
	}

	// The client-supplied email is advisory only; trust the verified token.
	if req.Email != "" && req.Email != payload.Email {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Email mismatch in token verification"})
		return
	}

	user, err := h.UserStore.GetUserByEmailOrGoogleID(c.Request.Context(), payload.Email, payload.Subject)
	switch {
	case err == nil:
		// Existing account: backfill Google identity if it was missing.
		if user.GoogleID == nil || user.AuthProvider == models.AuthProviderEmail {
			var photoURL *string
			if payload.PhotoURL != "" {
				photoURL = &payload.PhotoURL
			}
			if err := h.UserStore.LinkGoogleAccount(c.Request.Context(), user.ID, payload.Subject, photoURL); err != nil {
				log.Printf("Failed to link google account for user %d: %v", user.ID, err)
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error during Google sign-in"})
				return
			}
			user.GoogleID = &payload.Subject
			user.AuthProvider = models.AuthProviderGoogle
		}
		if err := h.UserStore.UpdateLastLogin(c.Request.Context(), user.ID); err != nil {
			log.Printf("Failed to update last login for user %d: %v", user.ID, err)
		}

	case errors.Is(err, store.ErrUserNotFound):
		name := payload.Name
		if name == "" {
			name = req.Name
		}
		var photoURL *string
		if payload.PhotoURL != "" {
			photoURL = &payload.PhotoURL
		} else if req.PhotoURL != "" {
			photoURL = &req.PhotoURL
		}
		user, err = h.UserStore.CreateUser(c.Request.Context(), store.CreateUserParams{
			Name:          name,
			Email:         payload.Email,
			GoogleID:      &payload.Subject,
			PhotoURL:      photoURL,
			Role:          models.RoleCustomer,
			AuthProvider:  models.AuthProviderGoogle,
			EmailVerified: true, // Google accounts are pre-verified
		})
		if err != nil {
			log.Printf("ERROR: Failed to create google user for email %s: %v", payload.Email, err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error during Google sign-in"})
			return
		}

	default:
		log.Printf("ERROR: Database error during google sign-in lookup: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error during Google sign-in"})
		return
	}

	tokenString, err := utils.GenerateJWT(user)
	if err != nil {
		log.Printf("ERROR: Failed to generate JWT for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to generate authentication token"})
		return
	}

	h.setAuthCookie(c, tokenString)

	log.Printf("Google sign-in: ID=%d, Email=%s", user.ID, user.Email)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Google sign-in successful",
		"user":    user,
		"token":   tokenString,
	})
}

func (h *AuthHandlers) Logout(c *gin.Context) {
	// Clear the JWT cookie by setting its MaxAge to -1 (immediately expire).
	c.SetCookie(
		"jwt_token",
		"",
		-1,
		"/",
		"",
		false,
		true,
	)

	log.Println("User logged out (JWT cookie cleared).")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logout successful"})
}

func (h *AuthHandlers) setAuthCookie(c *gin.Context, tokenString string) {
	c.SetCookie(
		"jwt_token",
		tokenString,
		int(7*24*time.Hour/time.Second),
		"/",
		"",
		false,
		true,
	)
}
