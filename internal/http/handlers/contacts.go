package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/contacthub/internal/config"
	"github.com/geocoder89/contacthub/internal/domain/contact"
	"github.com/geocoder89/contacthub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// ContactStore is the slice of the contacts repository the handlers need.
// Every call is scoped by the owning user's id.
type ContactStore interface {
	Create(ctx context.Context, userID int64, req contact.CreateContactRequest) (contact.Contact, error)
	List(ctx context.Context, userID int64, q string) ([]contact.Contact, error)
	GetByID(ctx context.Context, userID, id int64) (contact.Contact, error)
	Update(ctx context.Context, userID, id int64, patch contact.UpdateContactRequest) (contact.Contact, error)
	Delete(ctx context.Context, userID, id int64) error
	UpcomingBirthdays(ctx context.Context, userID int64, today time.Time) ([]contact.Contact, error)
}

type ContactsHandler struct {
	repo ContactStore

	// now is a seam for the birthday-window tests
	now func() time.Time
}

func NewContactsHandler(repo ContactStore) *ContactsHandler {
	return &ContactsHandler{repo: repo, now: time.Now}
}

func (h *ContactsHandler) CreateContact(ctx *gin.Context) {
	u, ok := middlewares.CurrentUser(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Could not validate credentials")
		return
	}

	var req contact.CreateContactRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	c, err := h.repo.Create(cctx, u.ID, req)

	if err != nil {
		RespondInternal(ctx, "Could not create contact")
		return
	}

	ctx.JSON(http.StatusCreated, c)
}

func (h *ContactsHandler) ListContacts(ctx *gin.Context) {
	u, ok := middlewares.CurrentUser(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Could not validate credentials")
		return
	}

	q := ctx.Query("q")

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	contacts, err := h.repo.List(cctx, u.ID, q)

	if err != nil {
		RespondInternal(ctx, "Could not list contacts")
		return
	}

	ctx.JSON(http.StatusOK, contacts)
}

func (h *ContactsHandler) GetContactById(ctx *gin.Context) {
	u, ok := middlewares.CurrentUser(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Could not validate credentials")
		return
	}

	id, ok := contactID(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	c, err := h.repo.GetByID(cctx, u.ID, id)

	if err != nil {
		if errors.Is(err, contact.ErrNotFound) {
			RespondNotFound(ctx, contactNotFoundMessage(id))
			return
		}
		RespondInternal(ctx, "Could not fetch contact")
		return
	}

	ctx.JSON(http.StatusOK, c)
}

func (h *ContactsHandler) UpdateContact(ctx *gin.Context) {
	u, ok := middlewares.CurrentUser(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Could not validate credentials")
		return
	}

	id, ok := contactID(ctx)

	if !ok {
		return
	}

	var patch contact.UpdateContactRequest

	if !BindJSON(ctx, &patch) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	c, err := h.repo.Update(cctx, u.ID, id, patch)

	if err != nil {
		if errors.Is(err, contact.ErrNotFound) {
			RespondNotFound(ctx, contactNotFoundMessage(id))
			return
		}
		RespondInternal(ctx, "Could not update contact")
		return
	}

	ctx.JSON(http.StatusOK, c)
}

func (h *ContactsHandler) DeleteContact(ctx *gin.Context) {
	u, ok := middlewares.CurrentUser(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Could not validate credentials")
		return
	}

	id, ok := contactID(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	err := h.repo.Delete(cctx, u.ID, id)

	if err != nil {
		if errors.Is(err, contact.ErrNotFound) {
			RespondNotFound(ctx, contactNotFoundMessage(id))
			return
		}
		RespondInternal(ctx, "Could not delete contact")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Contact successfully deleted"})
}

// FutureBirthdays lists contacts whose birthday falls within the next
// seven days, counting from today.
func (h *ContactsHandler) FutureBirthdays(ctx *gin.Context) {
	u, ok := middlewares.CurrentUser(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Could not validate credentials")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	contacts, err := h.repo.UpcomingBirthdays(cctx, u.ID, h.now())

	if err != nil {
		RespondInternal(ctx, "Could not list birthdays")
		return
	}

	ctx.JSON(http.StatusOK, contacts)
}

func contactID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)

	if err != nil {
		RespondBadRequest(ctx, "Contact id must be an integer", nil)
		return 0, false
	}

	return id, true
}

func contactNotFoundMessage(id int64) string {
	return fmt.Sprintf("Contact with id: %d was not found", id)
}
