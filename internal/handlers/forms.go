package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/strivetech/saiplatform/internal/services"
	"github.com/strivetech/saiplatform/pkg/response"
)

// FormHandler accepts the public marketing forms.
type FormHandler struct {
	forms *services.FormService
}

// NewFormHandler constructs a FormHandler.
func NewFormHandler(forms *services.FormService) (*FormHandler, error) {
	if forms == nil {
		return nil, errors.New("form handler: form service is required")
	}
	return &FormHandler{forms: forms}, nil
}

// POST /api/forms/contact
func (h *FormHandler) Contact(c *gin.Context) {
	var body services.ContactSubmission
	if !bindJSON(c, &body) {
		return
	}
	receipt, err := h.forms.SubmitContact(requestContext(c), body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, receipt)
}

// POST /api/forms/newsletter
func (h *FormHandler) Newsletter(c *gin.Context) {
	var body services.NewsletterSubscription
	if !bindJSON(c, &body) {
		return
	}
	receipt, err := h.forms.Subscribe(requestContext(c), body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, receipt)
}

// POST /api/forms/request
func (h *FormHandler) Request(c *gin.Context) {
	var body services.ProjectRequest
	if !bindJSON(c, &body) {
		return
	}
	receipt, err := h.forms.SubmitRequest(requestContext(c), body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, receipt)
}
