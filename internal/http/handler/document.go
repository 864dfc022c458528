package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"clientdocs/internal/http/middleware"
	"clientdocs/internal/model"
	"clientdocs/internal/query"
	"clientdocs/internal/service"
)

// documentID returns the path id in canonical UUID form.
func documentID(c *fiber.Ctx) (string, bool) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// ListDocuments returns the documents visible to the caller.
//
//	@Summary	List documents
//	@Tags		documents
//	@Security	BearerAuth
//	@Produce	json
//	@Param		category	query		string	false	"Proposal, Invoice, Report or Contract"
//	@Param		accessLevel	query		string	false	"private, shared or public"
//	@Param		clientId	query		string	false	"client UUID"
//	@Param		startDate	query		string	false	"YYYY-MM-DD"
//	@Param		endDate		query		string	false	"YYYY-MM-DD, inclusive"
//	@Param		search		query		string	false	"literal text in title or description"
//	@Success	200			{object}	envelope{data=[]model.Document}
//	@Failure	400			{object}	envelope
//	@Router		/documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var params query.Params
		if err := c.QueryParser(&params); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid query parameters")
		}

		docs, err := svc.List(c.UserContext(), middleware.PrincipalID(c), params)
		if err != nil {
			return writeAppError(c, err)
		}
		return writeList(c, docs, len(docs))
	}
}

// GetDocument returns one readable document.
//
//	@Summary	Get a document
//	@Tags		documents
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"document UUID"
//	@Success	200	{object}	envelope{data=model.Document}
//	@Failure	400	{object}	envelope
//	@Failure	403	{object}	envelope
//	@Failure	404	{object}	envelope
//	@Router		/documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.Get(c.UserContext(), middleware.PrincipalID(c), id)
		if err != nil {
			return writeAppError(c, err)
		}
		return writeData(c, fiber.StatusOK, "", doc)
	}
}

// UploadDocument stores a new document (multipart/form-data, field name: file).
//
//	@Summary	Upload a document
//	@Tags		documents
//	@Security	BearerAuth
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		file		formData	file	true	"PDF, PNG or DOCX, at most 5 MB"
//	@Param		title		formData	string	true	"3-100 letters, digits, spaces, - or _"
//	@Param		description	formData	string	false	"up to 300 characters"
//	@Param		category	formData	string	true	"Proposal, Invoice, Report or Contract"
//	@Param		accessLevel	formData	string	false	"private (default), shared or public"
//	@Param		clientId	formData	string	true	"client UUID"
//	@Success	201			{object}	envelope{data=model.Document}
//	@Failure	400			{object}	envelope
//	@Failure	403			{object}	envelope
//	@Failure	404			{object}	envelope
//	@Failure	413			{object}	envelope
//	@Router		/documents [post]
func UploadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "no file uploaded")
		}

		var form uploadForm
		if err := c.BodyParser(&form); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid form data")
		}
		form.Title = strings.TrimSpace(form.Title)
		form.Description = strings.TrimSpace(form.Description)
		if err := validateStruct(form); err != nil {
			return writeAppError(c, err)
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		doc, err := svc.Upload(c.UserContext(), middleware.PrincipalID(c), service.UploadInput{
			Title:       form.Title,
			Description: form.Description,
			Category:    model.Category(form.Category),
			AccessLevel: model.AccessLevel(form.AccessLevel),
			ClientID:    form.ClientID,
			FileName:    fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Size:        fh.Size,
			Content:     f,
		})
		if err != nil {
			return writeAppError(c, err)
		}
		return writeData(c, fiber.StatusCreated, "document uploaded successfully", doc)
	}
}

// UpdateDocument changes document metadata. Owner only.
//
//	@Summary	Update document metadata
//	@Tags		documents
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string			true	"document UUID"
//	@Param		body	body		updateRequest	true	"fields to change"
//	@Success	200		{object}	envelope{data=model.Document}
//	@Failure	400		{object}	envelope
//	@Failure	403		{object}	envelope
//	@Failure	404		{object}	envelope
//	@Failure	409		{object}	envelope
//	@Router		/documents/{id} [put]
func UpdateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req updateRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}
		req.Title = trimmed(req.Title)
		req.Description = trimmed(req.Description)
		if err := validateStruct(req); err != nil {
			return writeAppError(c, err)
		}

		doc, err := svc.Update(c.UserContext(), middleware.PrincipalID(c), id, req.input())
		if err != nil {
			return writeAppError(c, err)
		}
		return writeData(c, fiber.StatusOK, "document updated successfully", doc)
	}
}

// DeleteDocument removes a document. Owner only.
//
//	@Summary	Delete a document
//	@Tags		documents
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"document UUID"
//	@Success	200	{object}	envelope{data=service.DeleteReport}
//	@Failure	403	{object}	envelope
//	@Failure	404	{object}	envelope
//	@Router		/documents/{id} [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		report, err := svc.Delete(c.UserContext(), middleware.PrincipalID(c), id)
		if err != nil {
			return writeAppError(c, err)
		}
		return writeData(c, fiber.StatusOK, "document deleted successfully", report)
	}
}

// ShareDocument grants read access to other users and notifies the new recipients.
//
//	@Summary	Share a document
//	@Tags		documents
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string			true	"document UUID"
//	@Param		body	body		shareRequest	true	"recipients"
//	@Success	200		{object}	envelope{data=service.ShareResult}
//	@Failure	400		{object}	envelope
//	@Failure	403		{object}	envelope
//	@Failure	404		{object}	envelope
//	@Router		/documents/{id}/share [post]
func ShareDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req shareRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}

		res, err := svc.Share(c.UserContext(), middleware.PrincipalID(c), id, req.targets())
		if err != nil {
			return writeAppError(c, err)
		}
		return writeData(c, fiber.StatusOK, "document shared successfully", res)
	}
}

// DownloadDocument streams the stored file as an attachment.
//
//	@Summary	Download a document
//	@Tags		documents
//	@Security	BearerAuth
//	@Produce	octet-stream
//	@Param		id	path	string	true	"document UUID"
//	@Success	200
//	@Failure	403	{object}	envelope
//	@Failure	404	{object}	envelope
//	@Failure	410	{object}	envelope
//	@Router		/documents/{id}/download [get]
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		dl, err := svc.Download(c.UserContext(), middleware.PrincipalID(c), id)
		if err != nil {
			return writeAppError(c, err)
		}

		c.Attachment(dl.FileName)
		if dl.ContentType != "" {
			c.Set(fiber.HeaderContentType, dl.ContentType)
		}
		size := int(dl.Size)
		if size <= 0 {
			size = -1
		}
		// fasthttp closes the body once it has been written.
		return c.SendStream(dl.Body, size)
	}
}

// DownloadURL returns a short-lived direct link to the stored file.
//
//	@Summary	Presigned download link
//	@Tags		documents
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"document UUID"
//	@Success	200	{object}	envelope{data=service.DownloadURL}
//	@Failure	403	{object}	envelope
//	@Failure	410	{object}	envelope
//	@Router		/documents/{id}/download-url [get]
func DownloadURL(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		link, err := svc.DownloadURL(c.UserContext(), middleware.PrincipalID(c), id)
		if err != nil {
			return writeAppError(c, err)
		}
		return writeData(c, fiber.StatusOK, "", link)
	}
}
