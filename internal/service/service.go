package service

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gitlab.com/dirk.krummacker/contactbook/internal/contacts"
	"gitlab.com/dirk.krummacker/contactbook/internal/logging"
	"gitlab.com/dirk.krummacker/contactbook/internal/model"
	"gitlab.com/dirk.krummacker/contactbook/internal/validation"
)

//go:embed templates/*.html
var templatesFS embed.FS

// offered are the response formats of every endpoint. HTML comes first so that browsers and
// clients without an Accept header get the rendered views.
var offered = []string{gin.MIMEHTML, gin.MIMEJSON}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// handler serves the contact endpoints.
type handler struct {
	contacts *contacts.Service
	database Pinger
}

// SetupHttpRouter initializes the router, loads the views and registers all endpoints. HTTP
// request logging can be switched off, e.g. for load tests.
func SetupHttpRouter(contactService *contacts.Service, database Pinger, httpLogging bool) *gin.Engine {
	router := gin.New()
	router.Use(logging.Recovery())
	if httpLogging {
		router.Use(logging.RequestLogger())
	} else {
		log.Info().Msg("Turning off HTTP request logging.")
	}
	router.SetHTMLTemplate(parseTemplates())

	h := &handler{contacts: contactService, database: database}
	router.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/contacts") })
	router.GET("/healthz", h.health)
	router.GET("/contacts", h.findContacts)
	router.GET("/contacts/new", h.newContactForm)
	router.POST("/contacts", h.createContact)
	router.GET("/contacts/:id", h.findContactByID)
	router.GET("/contacts/:id/edit", h.editContactForm)
	router.POST("/contacts/:id", h.updateContactByID)
	router.PUT("/contacts/:id", h.updateContactByID)
	router.POST("/contacts/:id/delete", h.deleteContactByID)
	router.DELETE("/contacts/:id", h.deleteContactByID)
	router.NoRoute(func(c *gin.Context) {
		respond(c, http.StatusNotFound, "error.html", errorPage(http.StatusNotFound, "Page not found"),
			gin.H{"message": "page not found"})
	})
	return router
}

func parseTemplates() *template.Template {
	funcs := template.FuncMap{
		// Notes are sanitized before they are stored, so they may be rendered as markup.
		"trustedHTML": func(s string) template.HTML { return template.HTML(s) },
		"formatTime": func(t model.Timestamp) string {
			return t.Time.UTC().Format("January 2, 2006 at 15:04:05 UTC")
		},
	}
	return template.Must(template.New("views").Funcs(funcs).ParseFS(templatesFS, "templates/*.html"))
}

// health responds with OK if the database can be reached.
//
// Example REST API call:
//
//	> curl http://localhost:8080/healthz
func (h *handler) health(c *gin.Context) {
	if err := h.database.Ping(c.Request.Context()); err != nil {
		log.Error().Err(err).Msg("database is not reachable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// findContacts responds with the list of all contacts.
//
// REST API calls:
//
//	> curl http://localhost:8080/contacts
//	> curl http://localhost:8080/contacts --header "Accept: application/json"
func (h *handler) findContacts(c *gin.Context) {
	all, err := h.contacts.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "contacts/index.html", gin.H{"Title": "Contacts", "Contacts": all}, all)
}

// newContactForm responds with an empty form for a new contact.
func (h *handler) newContactForm(c *gin.Context) {
	c.HTML(http.StatusOK, "contacts/form.html", createPage(model.Form{}, ""))
}

// createContact stores the contact submitted as form or JSON. Browsers are redirected to the list
// of contacts, JSON clients receive the new contact including its id. Invalid values are answered
// with the form and a message that names every problem.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts --include --header "Accept: application/json" --data "firstName=Erika&lastName=Mustermann&emailAddress=erika@example.com&notes=<b>neighbour</b>"
func (h *handler) createContact(c *gin.Context) {
	var form model.Form
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, "invalid form data")
		return
	}
	created, err := h.contacts.Create(c.Request.Context(), form)
	var validationErr *validation.Error
	if errors.As(err, &validationErr) {
		respond(c, http.StatusUnprocessableEntity, "contacts/form.html",
			createPage(form, validationErr.Error()), validationBody(validationErr))
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	if wantsJSON(c) {
		c.JSON(http.StatusCreated, created)
		return
	}
	c.Redirect(http.StatusSeeOther, "/contacts")
}

// findContactByID locates the contact whose ID value matches the id parameter of the request URL,
// then returns that contact as a response.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/0b7e0c6f-4a0b-4a3e-9a3c-6c1d2f1c9b11
func (h *handler) findContactByID(c *gin.Context) {
	contact, err := h.contacts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "contacts/show.html",
		gin.H{"Title": contact.FirstName + " " + contact.LastName, "Contact": contact}, contact)
}

// editContactForm responds with a form that is filled with the current values of the contact.
func (h *handler) editContactForm(c *gin.Context) {
	contact, err := h.contacts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "contacts/form.html", editPage(contact.Id, contact.Form(), ""))
}

// updateContactByID overwrites all editable values of the contact whose ID value matches the id
// parameter of the request URL. Browsers are redirected to the contact, JSON clients receive the
// new version of the contact.
//
// Example REST API calls:
//
//	> curl http://localhost:8080/contacts/0b7e0c6f-4a0b-4a3e-9a3c-6c1d2f1c9b11 --data "firstName=Rudi&lastName=Voeller"
//	> curl http://localhost:8080/contacts/0b7e0c6f-4a0b-4a3e-9a3c-6c1d2f1c9b11 --request "PUT" --header "Content-Type: application/json" --header "Accept: application/json" --data '{"firstName": "Rudi", "lastName": "Voeller"}'
func (h *handler) updateContactByID(c *gin.Context) {
	id := c.Param("id")
	var form model.Form
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, "invalid form data")
		return
	}
	updated, err := h.contacts.Update(c.Request.Context(), id, form)
	var validationErr *validation.Error
	if errors.As(err, &validationErr) {
		respond(c, http.StatusUnprocessableEntity, "contacts/form.html",
			editPage(id, form, validationErr.Error()), validationBody(validationErr))
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	if wantsJSON(c) {
		c.JSON(http.StatusOK, updated)
		return
	}
	c.Redirect(http.StatusSeeOther, "/contacts/"+url.PathEscape(id))
}

// deleteContactByID deletes the contact whose ID value matches the id parameter of the request URL
// from the database.
//
// Example REST API calls:
//
//	> curl http://localhost:8080/contacts/0b7e0c6f-4a0b-4a3e-9a3c-6c1d2f1c9b11/delete --request "POST"
//	> curl http://localhost:8080/contacts/0b7e0c6f-4a0b-4a3e-9a3c-6c1d2f1c9b11 --request "DELETE"
func (h *handler) deleteContactByID(c *gin.Context) {
	if err := h.contacts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"message": "contact deleted"})
		return
	}
	c.Redirect(http.StatusSeeOther, "/contacts")
}

func createPage(form model.Form, errorMessage string) gin.H {
	return gin.H{
		"Title":        "New contact",
		"Action":       "/contacts",
		"Cancel":       "/contacts",
		"Form":         form,
		"ErrorMessage": errorMessage,
	}
}

func editPage(id string, form model.Form, errorMessage string) gin.H {
	path := "/contacts/" + url.PathEscape(id)
	return gin.H{
		"Title":        "Edit contact",
		"Action":       path,
		"Cancel":       path,
		"Form":         form,
		"ErrorMessage": errorMessage,
	}
}

func errorPage(status int, message string) gin.H {
	return gin.H{"Title": http.StatusText(status), "Status": status, "Message": message}
}

func validationBody(err *validation.Error) gin.H {
	return gin.H{"message": err.Error(), "failed": err.Failed}
}

// wantsJSON reports whether the client prefers JSON over HTML.
func wantsJSON(c *gin.Context) bool {
	return c.NegotiateFormat(offered...) == gin.MIMEJSON
}

// respond renders the named view for browsers and encodes jsonData for JSON clients.
func respond(c *gin.Context, status int, view string, htmlData gin.H, jsonData any) {
	c.Negotiate(status, gin.Negotiate{
		Offered:  offered,
		HTMLName: view,
		HTMLData: htmlData,
		JSONData: jsonData,
	})
}

func badRequest(c *gin.Context, message string) {
	respond(c, http.StatusBadRequest, "error.html", errorPage(http.StatusBadRequest, message),
		gin.H{"message": message})
}

// fail maps an error of the contact service to a response. Anything but a missing id or an
// unknown contact is logged and answered with a generic internal error.
func fail(c *gin.Context, err error) {
	var status int
	var message string
	switch {
	case errors.Is(err, contacts.ErrInvalidRequest):
		status, message = http.StatusBadRequest, "invalid contact id"
	case errors.Is(err, contacts.ErrNotFound):
		status, message = http.StatusNotFound, "contact not found"
	default:
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("contact operation failed")
		status, message = http.StatusInternalServerError, "internal server error"
	}
	respond(c, status, "error.html", errorPage(status, message), gin.H{"message": message})
}
