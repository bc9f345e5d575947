package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/contacthub/internal/auth"
	"github.com/geocoder89/contacthub/internal/cache"
	"github.com/geocoder89/contacthub/internal/config"
	"github.com/geocoder89/contacthub/internal/domain/user"
	"github.com/geocoder89/contacthub/internal/http/middlewares"
	"github.com/geocoder89/contacthub/internal/notifications"
	"github.com/geocoder89/contacthub/internal/security"
	"github.com/geocoder89/contacthub/internal/storage"
	"github.com/gin-gonic/gin"
)

// UserStore is the slice of the users repository the auth flows need.
type UserStore interface {
	Create(ctx context.Context, username, email, passwordHash string, avatar *string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	UpdateRefreshToken(ctx context.Context, email string, token *string) error
	ConfirmEmail(ctx context.Context, email string) error
}

type AuthHandler struct {
	users     UserStore
	jwt       *auth.Manager
	notifier  notifications.Notifier
	userCache *cache.Cache
	baseURL   string
	log       *slog.Logger
}

func NewAuthHandler(users UserStore, jwtManager *auth.Manager, notifier notifications.Notifier, userCache *cache.Cache, baseURL string, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:     users,
		jwt:       jwtManager,
		notifier:  notifier,
		userCache: userCache,
		baseURL:   baseURL,
		log:       log,
	}
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req user.SignUpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	avatar := storage.GravatarURL(req.Email)

	u, err := h.users.Create(cctx, req.Username, req.Email, hash, &avatar)

	if err != nil {
		if errors.Is(err, user.ErrEmailAlreadyUsed) {
			RespondConflict(ctx, "account_exists", "Account already exists")
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	// Confirmation mail is fire-and-forget: the signup response does not
	// wait for (or reflect) delivery.
	h.dispatchConfirmation(u.Email, u.Username)

	ctx.JSON(http.StatusCreated, gin.H{
		"user":   u,
		"detail": "User successfully created. Check your email for confirmation.",
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindForm(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	// The form's username field carries the account email.
	foundUser, err := h.users.GetByEmail(cctx, req.Username)
	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Invalid email")
		return
	}

	if !foundUser.Confirmed {
		RespondUnAuthorized(ctx, "email_not_confirmed", "Email is not confirmed")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Invalid password")
		return
	}

	pair, err := h.issueTokenPair(cctx, foundUser.Email)

	if err != nil {
		RespondInternal(ctx, "Could not create session")
		return
	}

	ctx.JSON(http.StatusOK, pair)
}

// Refresh exchanges a valid refresh token for a fresh pair, rotating the
// stored token on every use. Presenting a superseded token clears the
// stored value so the holder of the stale token cannot retry forever.
func (h *AuthHandler) Refresh(ctx *gin.Context) {
	raw, ok := middlewares.BearerToken(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "no_refresh", "Missing refresh token")
		return
	}

	email, err := h.jwt.DecodeRefreshToken(raw)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_refresh", "Invalid refresh token")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, email)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_refresh", "Invalid refresh token")
		return
	}

	if foundUser.RefreshToken == nil || *foundUser.RefreshToken != raw {
		// revoke whatever is stored; the token chain is broken
		if err := h.users.UpdateRefreshToken(cctx, email, nil); err != nil {
			h.log.Error("could not revoke refresh token", "email", email, "err", err)
		}

		RespondUnAuthorized(ctx, "invalid_refresh", "Invalid refresh token")
		return
	}

	pair, err := h.issueTokenPair(cctx, email)

	if err != nil {
		RespondInternal(ctx, "Could not refresh session")
		return
	}

	ctx.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) ConfirmedEmail(ctx *gin.Context) {
	token := ctx.Param("token")

	email, err := h.jwt.EmailFromToken(token)

	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			RespondBadRequest(ctx, "Verification token expired. Please request a new confirmation email.", nil)
			return
		}

		RespondBadRequest(ctx, "Verification error", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, email)

	if err != nil {
		RespondBadRequest(ctx, "Verification error", nil)
		return
	}

	// confirming twice is a no-op, not an error
	if foundUser.Confirmed {
		ctx.JSON(http.StatusOK, gin.H{"message": "Your email is already confirmed"})
		return
	}

	if err := h.users.ConfirmEmail(cctx, email); err != nil {
		RespondInternal(ctx, "Could not confirm email")
		return
	}

	if h.userCache != nil {
		h.userCache.Delete(email)
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Email is confirmed"})
}

func (h *AuthHandler) RequestEmail(ctx *gin.Context) {
	var req user.RequestEmailRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)

	// an unknown address gets the same answer as a known one
	if err == nil {
		if foundUser.Confirmed {
			ctx.JSON(http.StatusOK, gin.H{"message": "Your email is already confirmed"})
			return
		}

		h.dispatchConfirmation(foundUser.Email, foundUser.Username)
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Check your email for confirmation."})
}

// helpers

func (h *AuthHandler) issueTokenPair(ctx context.Context, email string) (user.TokenPair, error) {
	accessToken, err := h.jwt.GenerateAccessToken(email)

	if err != nil {
		return user.TokenPair{}, err
	}

	refreshToken, err := h.jwt.GenerateRefreshToken(email)

	if err != nil {
		return user.TokenPair{}, err
	}

	// the freshly issued refresh token becomes the single valid one
	if err := h.users.UpdateRefreshToken(ctx, email, &refreshToken); err != nil {
		return user.TokenPair{}, err
	}

	return user.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	}, nil
}

// dispatchConfirmation sends the confirmation email from a detached
// goroutine. Failures are logged with the recipient so support can point
// the user at the request_email endpoint; they are never surfaced.
func (h *AuthHandler) dispatchConfirmation(email, username string) {
	go func() {
		sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		token, err := h.jwt.GenerateEmailToken(email)

		if err != nil {
			h.log.Error("could not create email token", "email", email, "err", err)
			return
		}

		err = h.notifier.SendEmailConfirmation(sctx, notifications.SendEmailConfirmationInput{
			Email:    email,
			Username: username,
			Token:    token,
			BaseURL:  h.baseURL,
		})

		if err != nil {
			h.log.Error("confirmation email failed", "email", email, "err", err)
		}
	}()
}
