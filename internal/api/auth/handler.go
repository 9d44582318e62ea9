package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"nitpickr-api/config"
	"nitpickr-api/database"
	"nitpickr-api/internal/domain/teams"
	"nitpickr-api/internal/domain/users"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var errTeamNameTaken = errors.New("team name taken")

func Register(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Team     string `json:"team"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input.Email = users.NormalizeEmail(input.Email)
	if !isEmailValid(input.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email format"})
		return
	}
	if !isPasswordStrong(input.Password) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 8 characters long and contain both letters and numbers"})
		return
	}

	var existing int64
	database.DB.Model(&users.User{}).Where("email = ?", input.Email).Count(&existing)
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}
	hashed := string(hashedPassword)

	user := users.User{
		Name:         input.Name,
		Email:        input.Email,
		Password:     &hashed,
		AuthProvider: users.ProviderLocal,
		Role:         users.RoleUser,
	}
	token := generateToken()

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		verif := users.VerificationToken{
			UserID:    user.ID,
			Token:     token,
			Type:      users.TokenVerifyEmail,
			ExpiresAt: time.Now().Add(verificationTTL),
		}
		if err := tx.Create(&verif).Error; err != nil {
			return err
		}

		teamName := strings.TrimSpace(input.Team)
		if teamName == "" {
			return nil
		}
		slug := teams.Slugify(teamName)
		taken, err := teams.SlugExists(tx, slug)
		if err != nil {
			return err
		}
		if taken || slug == "" {
			return errTeamNameTaken
		}
		_, err = teams.Create(tx, teamName, slug, user.ID)
		return err
	})
	if errors.Is(err, errTeamNameTaken) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A team with the name already exists."})
		return
	}
	if err != nil {
		log.Error("Registration failed", "email", input.Email, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	if err := sendVerification(user.Email, token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send verification email"})
		return
	}

	log.Info("User registered", "user_id", user.ID)
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully. Please check your email to verify your account."})
}

func Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user users.User
	err := database.DB.Where("email = ?", users.NormalizeEmail(input.Email)).First(&user).Error
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if user.IsLocked() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account locked. Reset your password to unlock it."})
		return
	}

	if user.Password == nil || *user.Password == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "This account uses Google sign-in"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(input.Password)); err != nil {
		if locked := recordFailedLogin(database.DB, &user); locked {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account locked. Reset your password to unlock it."})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !user.IsVerified() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Please verify your email before logging in"})
		return
	}

	if user.InvalidLoginAttempts > 0 {
		database.DB.Model(&user).Update("invalid_login_attempts", 0)
	}

	tokenString, err := IssueToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": tokenString})
}

// recordFailedLogin bumps the counter in the database and locks the account
// once it reaches MAX_LOGIN_ATTEMPTS. It reports whether the account is now
// locked.
func recordFailedLogin(db *gorm.DB, user *users.User) bool {
	scope := func() *gorm.DB { return db.Model(&users.User{}).Where("id = ?", user.ID) }
	if err := scope().
		UpdateColumn("invalid_login_attempts", gorm.Expr("invalid_login_attempts + ?", 1)).Error; err != nil {
		log.Error("Failed to record login attempt", "user_id", user.ID, "error", err)
		return false
	}
	var attempts int
	if err := scope().Select("invalid_login_attempts").Scan(&attempts).Error; err != nil {
		log.Error("Failed to read login attempts", "user_id", user.ID, "error", err)
		return false
	}
	user.InvalidLoginAttempts = attempts

	if config.MAX_LOGIN_ATTEMPTS <= 0 || attempts < config.MAX_LOGIN_ATTEMPTS {
		return false
	}
	if err := scope().Where("locked_at IS NULL").
		UpdateColumn("locked_at", time.Now()).Error; err != nil {
		log.Error("Failed to lock account", "user_id", user.ID, "error", err)
	}
	log.Warn("Account locked", "user_id", user.ID, "attempts", attempts)
	return true
}

// GET /verify?token=
func VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing token"})
		return
	}

	var t users.VerificationToken
	err := database.DB.Where("token = ? AND type = ?", token, users.TokenVerifyEmail).First(&t).Error
	if err != nil || t.Expired(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired token"})
		return
	}

	if err := database.DB.Model(&users.User{}).Where("id = ?", t.UserID).Update("email_verified", time.Now()).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify user"})
		return
	}

	database.DB.Where("user_id = ? AND type = ?", t.UserID, users.TokenVerifyEmail).Delete(&users.VerificationToken{})

	c.Redirect(http.StatusTemporaryRedirect, config.APP_URL+"/auth/login?verified=1")
}

func ResendVerification(c *gin.Context) {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid email"})
		return
	}

	var user users.User
	if err := database.DB.Where("email = ?", users.NormalizeEmail(body.Email)).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if user.IsVerified() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User already verified"})
		return
	}

	database.DB.Where("user_id = ? AND type = ?", user.ID, users.TokenVerifyEmail).Delete(&users.VerificationToken{})

	token := generateToken()
	newToken := users.VerificationToken{
		UserID:    user.ID,
		Token:     token,
		Type:      users.TokenVerifyEmail,
		ExpiresAt: time.Now().Add(verificationTTL),
	}
	if err := database.DB.Create(&newToken).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store verification token"})
		return
	}

	if err := sendVerification(user.Email, token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send verification email"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Verification email resent"})
}
