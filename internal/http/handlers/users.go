package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/geocoder89/contacthub/internal/cache"
	"github.com/geocoder89/contacthub/internal/config"
	"github.com/geocoder89/contacthub/internal/domain/user"
	"github.com/geocoder89/contacthub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type AvatarUploader interface {
	Upload(ctx context.Context, userID int64, filename, contentType string, body io.Reader) (string, error)
}

type AvatarWriter interface {
	UpdateAvatar(ctx context.Context, email, url string) (user.User, error)
}

type UsersHandler struct {
	users     AvatarWriter
	avatars   AvatarUploader
	userCache *cache.Cache
}

func NewUsersHandler(users AvatarWriter, avatars AvatarUploader, userCache *cache.Cache) *UsersHandler {
	return &UsersHandler{users: users, avatars: avatars, userCache: userCache}
}

// Me returns the authenticated user's public profile.
func (h *UsersHandler) Me(ctx *gin.Context) {
	u, ok := middlewares.CurrentUser(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Could not validate credentials")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

// UpdateAvatar accepts a multipart "file" field, pushes it to object
// storage and stores the resulting URL on the user.
func (h *UsersHandler) UpdateAvatar(ctx *gin.Context) {
	u, ok := middlewares.CurrentUser(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Could not validate credentials")
		return
	}

	if h.avatars == nil {
		RespondInternal(ctx, "Avatar storage is not configured")
		return
	}

	fileHeader, err := ctx.FormFile("file")

	if err != nil {
		RespondBadRequest(ctx, "Avatar file is required", nil)
		return
	}

	file, err := fileHeader.Open()

	if err != nil {
		RespondBadRequest(ctx, "Could not read avatar file", nil)
		return
	}

	defer file.Close()

	cctx, cancel := config.WithTimeout(10 * time.Second)

	defer cancel()

	url, err := h.avatars.Upload(cctx, u.ID, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file)

	if err != nil {
		RespondInternal(ctx, "Could not upload avatar")
		return
	}

	updated, err := h.users.UpdateAvatar(cctx, u.Email, url)

	if err != nil {
		RespondInternal(ctx, "Could not update avatar")
		return
	}

	if h.userCache != nil {
		h.userCache.Delete(u.Email)
	}

	ctx.JSON(http.StatusOK, updated)
}
