package handlers

import (
	"io"
	"lawconnect/db"
	"lawconnect/models"
	"lawconnect/services"
	"lawconnect/templates/pages"
	"log"
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"
)

// DocumentsHandler renders folders and documents, filtered by ?folder= and ?q=
func DocumentsHandler(c echo.Context) error {
	user := mustUser(c)
	data := pages.DocumentsPage{
		Shell:        shell(c, "Documents", "documents"),
		ActiveFolder: c.QueryParam("folder"),
		Query:        c.QueryParam("q"),
		Error:        c.QueryParam("error"),
	}

	var err error
	if data.Folders, err = services.ListFolders(db.DB, user); err != nil {
		log.Printf("[WARNING] list folders for %s: %v", user.ID, err)
	}
	if data.Documents, err = services.ListDocuments(db.DB, user, services.DocumentFilter{
		FolderID: data.ActiveFolder,
		Query:    data.Query,
	}); err != nil {
		log.Printf("[WARNING] list documents for %s: %v", user.ID, err)
	}
	if user.IsLawyer() {
		data.Cases, _ = services.ListAssignedCases(db.DB, user.ID, "")
	} else {
		data.Cases, _ = services.ListCasesForUser(db.DB, user, services.ListFilter{})
	}
	return renderPage(c, "documents", data)
}

// UploadDocumentHandler stores a multipart upload
func UploadDocumentHandler(c echo.Context) error {
	back := area(c) + "/documents"
	doc, err := uploadDocument(c)
	if err != nil {
		return fail(c, err, back)
	}
	if doc.FolderID != nil {
		back += "?folder=" + *doc.FolderID
	}
	return done(c, back)
}

func uploadDocument(c echo.Context) (*models.Document, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, services.NewValidationError("Choose a file to upload.")
	}
	doc, err := services.UploadDocument(c.Request().Context(), db.DB, mustUser(c), file, services.DocumentInput{
		Name:     c.FormValue("name"),
		FolderID: c.FormValue("folder_id"),
		CaseID:   c.FormValue("case_id"),
		IsShared: c.FormValue("is_shared") == "true",
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// DownloadDocumentHandler streams a document the user may read
func DownloadDocumentHandler(c echo.Context) error {
	doc, reader, contentType, err := services.OpenDocument(c.Request().Context(), db.DB, mustUser(c), c.Param("id"))
	if err != nil {
		if c.Request().Header.Get(echo.HeaderAuthorization) != "" {
			return apiError(c, err)
		}
		return pageError(c, err)
	}
	defer reader.Close()

	disposition := "attachment"
	if c.QueryParam("inline") == "1" {
		disposition = "inline"
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, mime.FormatMediaType(disposition, map[string]string{"filename": doc.Name}))
	c.Response().Header().Set("X-Content-Type-Options", "nosniff")
	return c.Stream(http.StatusOK, contentType, reader)
}

// DeleteDocumentHandler removes a document. HTMX callers get an empty body
// so the row disappears.
func DeleteDocumentHandler(c echo.Context) error {
	if err := services.DeleteDocument(c.Request().Context(), db.DB, mustUser(c), c.Param("id")); err != nil {
		return fail(c, err, area(c)+"/documents")
	}
	if isHTMX(c) {
		return c.String(http.StatusOK, "")
	}
	return done(c, area(c)+"/documents")
}

// CreateFolderHandler adds a folder
func CreateFolderHandler(c echo.Context) error {
	folder, err := services.CreateFolder(db.DB, mustUser(c), c.FormValue("name"))
	if err != nil {
		return fail(c, err, area(c)+"/documents")
	}
	return done(c, area(c)+"/documents?folder="+folder.ID)
}

// DeleteFolderHandler removes a folder and keeps its documents
func DeleteFolderHandler(c echo.Context) error {
	if err := services.DeleteFolder(db.DB, mustUser(c), c.Param("id")); err != nil {
		return fail(c, err, area(c)+"/documents")
	}
	return done(c, area(c)+"/documents")
}

// API

func APIListFoldersHandler(c echo.Context) error {
	folders, err := services.ListFolders(db.DB, mustUser(c))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, folders)
}

func APICreateFolderHandler(c echo.Context) error {
	var body struct {
		Name string `json:"name" form:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	folder, err := services.CreateFolder(db.DB, mustUser(c), body.Name)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusCreated, folder)
}

func APIRenameFolderHandler(c echo.Context) error {
	var body struct {
		Name string `json:"name" form:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	folder, err := services.RenameFolder(db.DB, mustUser(c), c.Param("id"), body.Name)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, folder)
}

func APIDeleteFolderHandler(c echo.Context) error {
	if err := services.DeleteFolder(db.DB, mustUser(c), c.Param("id")); err != nil {
		return apiError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// APIListDocumentsHandler lists documents, filtered by ?folder=, ?case= and ?q=
func APIListDocumentsHandler(c echo.Context) error {
	docs, err := services.ListDocuments(db.DB, mustUser(c), services.DocumentFilter{
		FolderID: c.QueryParam("folder"),
		CaseID:   c.QueryParam("case"),
		Query:    c.QueryParam("q"),
	})
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, docs)
}

func APIGetDocumentHandler(c echo.Context) error {
	doc, err := services.GetDocumentForUser(db.DB, mustUser(c), c.Param("id"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}

// APIUploadDocumentHandler stores a multipart upload (fields file, name,
// folder_id, case_id, is_shared)
func APIUploadDocumentHandler(c echo.Context) error {
	doc, err := uploadDocument(c)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusCreated, doc)
}

func APIUpdateDocumentHandler(c echo.Context) error {
	var body struct {
		Name     *string `json:"name"`
		FolderID *string `json:"folder"`
		IsShared *bool   `json:"is_shared"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	doc, err := services.UpdateDocument(db.DB, mustUser(c), c.Param("id"), services.UpdateDocumentInput{
		Name:     body.Name,
		FolderID: body.FolderID,
		IsShared: body.IsShared,
	})
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}

func APIDeleteDocumentHandler(c echo.Context) error {
	if err := services.DeleteDocument(c.Request().Context(), db.DB, mustUser(c), c.Param("id")); err != nil {
		return apiError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// copyBody is used by the media handler to stream storage objects
func copyBody(c echo.Context, contentType string, r io.Reader) error {
	c.Response().Header().Set("Cache-Control", "private, max-age=300")
	return c.Stream(http.StatusOK, contentType, r)
}
