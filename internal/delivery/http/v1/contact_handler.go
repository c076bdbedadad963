package v1

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"nexulsly-backend/internal/delivery/http/response"
	"nexulsly-backend/internal/domain"
	"nexulsly-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidForm    = "Invalid form data"
	msgFetchFailed    = "Failed to fetch contacts"
	msgSubmitFailed   = "Failed to submit contact form"
	msgInvalidListArg = "limit must be a positive integer"
)

type ContactHandler struct {
	contactUC domain.ContactUsecase
}

// NewContactHandler registers the public submission route and the admin listing route.
func NewContactHandler(api *gin.RouterGroup, contactUC domain.ContactUsecase, submitLimiter, adminAuth gin.HandlerFunc) {
	handler := &ContactHandler{
		contactUC: contactUC,
	}

	api.POST("/contact", submitLimiter, handler.SubmitContact)
	api.OPTIONS("/contact", preflight)

	api.GET("/contacts", adminAuth, handler.ListContacts)
	api.OPTIONS("/contacts", preflight)
}

// preflight is reached only when CORS handling did not end the request.
func preflight(c *gin.Context) {
	c.Status(http.StatusOK)
}

// SubmitContact godoc
// @Summary      Submit Contact Form
// @Description  Validates the form, stores it when storage is configured and emails a confirmation to the sender and a notice to the team. emailSent=false with success=true means the submission was stored but at least one email failed.
// @Tags         contact
// @Accept       json
// @Produce      json
// @Param        contact  body      domain.ContactRequest  true  "Contact Form Data"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      405      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /contact [post]
func (h *ContactHandler) SubmitContact(c *gin.Context) {
	var req domain.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.New(http.StatusBadRequest, msgInvalidForm, err).WithDetails([]domain.FieldError{
			{Field: "body", Message: "Request body must be a JSON object"},
		}))
		return
	}

	result, err := h.contactUC.Submit(c.Request.Context(), &req)
	if err != nil {
		var vErr *domain.ValidationError
		switch {
		case errors.As(err, &vErr):
			c.Error(apperror.New(http.StatusBadRequest, msgInvalidForm, nil).WithDetails(vErr.Fields))
		case errors.Is(err, domain.ErrStorage), errors.Is(err, domain.ErrEmail):
			message := msgSubmitFailed
			if result != nil && result.Message != "" {
				message = result.Message
			}
			c.Error(apperror.New(http.StatusInternalServerError, message, err))
		default:
			c.Error(apperror.New(http.StatusInternalServerError, msgSubmitFailed, err))
		}
		return
	}

	var contact interface{}
	if result.Contact != nil {
		contact = result.Contact
	}
	response.Submission(c, http.StatusOK, result.Success, result.Message, result.EmailSent, contact)
}

// ListContacts godoc
// @Summary      List Contact Submissions
// @Description  Returns stored submissions, newest first. Requires an admin bearer token when ADMIN_JWT_SECRET is set.
// @Tags         contact
// @Produce      json
// @Security     BearerAuth
// @Param        projectType  query     string  false  "Comma separated project types"
// @Param        limit        query     int     false  "Maximum rows (default 100, max 500)"
// @Success      200          {array}   domain.StoredContact
// @Failure      400          {object}  response.Response
// @Failure      401          {object}  response.Response
// @Failure      500          {object}  response.Response
// @Router       /contacts [get]
func (h *ContactHandler) ListContacts(c *gin.Context) {
	filter := domain.ContactFilter{}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.Error(apperror.BadRequest(msgInvalidListArg))
			return
		}
		filter.Limit = limit
	}

	for _, value := range c.QueryArray("projectType") {
		for _, pt := range strings.Split(value, ",") {
			if pt = strings.TrimSpace(pt); pt != "" {
				filter.ProjectTypes = append(filter.ProjectTypes, pt)
			}
		}
	}

	contacts, err := h.contactUC.ListContacts(c.Request.Context(), filter)
	if err != nil {
		c.Error(apperror.New(http.StatusInternalServerError, msgFetchFailed, err))
		return
	}

	c.JSON(http.StatusOK, contacts)
}
