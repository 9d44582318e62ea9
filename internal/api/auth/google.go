package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"nitpickr-api/config"
	"nitpickr-api/database"
	"nitpickr-api/internal/domain/users"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

const (
	googleIssuer      = "https://accounts.google.com"
	stateCookie       = "nitpickr_oauth_state"
	stateCookieMaxAge = 300
)

var (
	errMissingIDToken = errors.New("missing id_token")
	errIncompleteID   = errors.New("id_token lacks sub or email")

	verifierOnce sync.Once
	verifier     *oidc.IDTokenVerifier
	verifierErr  error
)

func googleEnabled() bool {
	return config.GOOGLE_CLIENT_ID != "" && config.GOOGLE_CLIENT_SECRET != ""
}

func oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     config.GOOGLE_CLIENT_ID,
		ClientSecret: config.GOOGLE_CLIENT_SECRET,
		RedirectURL:  config.GOOGLE_REDIRECT_URL,
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

// idTokenVerifier discovers Google's keys once per process.
func idTokenVerifier(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	verifierOnce.Do(func() {
		provider, err := oidc.NewProvider(ctx, googleIssuer)
		if err != nil {
			verifierErr = fmt.Errorf("discover google provider: %w", err)
			return
		}
		verifier = provider.Verifier(&oidc.Config{ClientID: config.GOOGLE_CLIENT_ID})
	})
	return verifier, verifierErr
}

type googleIdentity struct {
	Sub       string `json:"sub"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	GivenName string `json:"given_name"`
}

func (g googleIdentity) displayName() string {
	for _, v := range []string{g.Name, g.GivenName, g.Email} {
		if v != "" {
			return v
		}
	}
	return ""
}

// GoogleStart GET /auth/google redirects to Google's consent screen with a
// state bound to a short-lived cookie.
func GoogleStart(c *gin.Context) {
	if !googleEnabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Google sign-in is not configured"})
		return
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start Google sign-in"})
		return
	}
	state := base64.RawURLEncoding.EncodeToString(b)

	c.SetCookie(stateCookie, state, stateCookieMaxAge, "/", "", config.IsProduction(), true)
	c.Redirect(http.StatusFound, oauthConfig().AuthCodeURL(state, oauth2.AccessTypeOnline))
}

// GoogleCallback GET /auth/google/callback exchanges the code, signs the
// user in (creating or linking the account) and hands the session token to
// the frontend.
func GoogleCallback(c *gin.Context) {
	if !googleEnabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Google sign-in is not configured"})
		return
	}

	state, code := c.Query("state"), c.Query("code")
	if state == "" || code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing code or state"})
		return
	}
	if saved, err := c.Cookie(stateCookie); err != nil || saved != state {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OAuth state"})
		return
	}
	c.SetCookie(stateCookie, "", -1, "/", "", config.IsProduction(), true)

	id, err := exchangeIdentity(c.Request.Context(), code)
	if err != nil {
		log.Warn("Google token exchange failed", "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Google sign-in failed"})
		return
	}

	user, err := googleUser(database.DB.WithContext(c.Request.Context()), id)
	if err != nil {
		log.Error("Google sign-in failed", "email", id.Email, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign in"})
		return
	}
	if user.IsLocked() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account locked. Reset your password to unlock it."})
		return
	}

	token, err := IssueToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}
	if config.GOOGLE_FRONTEND_REDIRECT == "" {
		c.JSON(http.StatusOK, gin.H{"token": token})
		return
	}
	c.Redirect(http.StatusFound, config.GOOGLE_FRONTEND_REDIRECT+"?token="+url.QueryEscape(token))
}

func exchangeIdentity(ctx context.Context, code string) (googleIdentity, error) {
	tok, err := oauthConfig().Exchange(ctx, code)
	if err != nil {
		return googleIdentity{}, fmt.Errorf("exchange code: %w", err)
	}
	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return googleIdentity{}, errMissingIDToken
	}

	v, err := idTokenVerifier(ctx)
	if err != nil {
		return googleIdentity{}, err
	}
	idToken, err := v.Verify(ctx, raw)
	if err != nil {
		return googleIdentity{}, fmt.Errorf("verify id_token: %w", err)
	}

	var id googleIdentity
	if err := idToken.Claims(&id); err != nil {
		return googleIdentity{}, fmt.Errorf("decode claims: %w", err)
	}
	if id.Sub == "" || id.Email == "" {
		return googleIdentity{}, errIncompleteID
	}
	return id, nil
}

// googleUser returns the account bound to the Google subject. An account with
// the same email is linked and counts as verified; otherwise one is created.
func googleUser(db *gorm.DB, id googleIdentity) (users.User, error) {
	var user users.User
	err := db.Where("google_sub = ?", id.Sub).First(&user).Error
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return users.User{}, err
	}

	now := time.Now()
	sub := id.Sub

	err = db.Where("email = ?", users.NormalizeEmail(id.Email)).First(&user).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{"google_sub": sub}
		if !user.IsVerified() {
			updates["email_verified"] = now
		}
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			return users.User{}, err
		}
		log.Info("Google account linked", "user_id", user.ID)
		return user, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return users.User{}, err
	}

	user = users.User{
		Name:          id.displayName(),
		Email:         id.Email,
		AuthProvider:  users.ProviderGoogle,
		GoogleSub:     &sub,
		Role:          users.RoleUser,
		EmailVerified: &now,
	}
	if err := db.Create(&user).Error; err != nil {
		return users.User{}, err
	}
	log.Info("User registered with Google", "user_id", user.ID)
	return user, nil
}
