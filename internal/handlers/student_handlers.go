package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gymmanager/internal/common"
	"gymmanager/internal/logger"
	"gymmanager/internal/models"
	"gymmanager/internal/services"
	"gymmanager/internal/tenancy"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	dateLayout   = "2006-01-02"
	maxPhotoSize = 5 << 20
)

// StudentHandlers serves the students of the tenant named by X-Tenant-ID
type StudentHandlers struct {
	studentService services.StudentService
}

// NewStudentHandlers creates a new student handlers instance
func NewStudentHandlers(studentService services.StudentService) *StudentHandlers {
	return &StudentHandlers{studentService: studentService}
}

// StudentRequest is the create payload. Dates are YYYY-MM-DD.
type StudentRequest struct {
	FullName            string  `json:"nome_completo" example:"Maria Silva"`
	BirthDate           string  `json:"data_nascimento" example:"2010-05-04"`
	TaxID               *string `json:"cpf"`
	WhatsApp            string  `json:"whatsapp" example:"+55 11 99999-0000"`
	GuardianName        *string `json:"nome_responsavel"`
	GuardianContact     *string `json:"contato_responsavel"`
	DueDay              int     `json:"dia_vencimento" example:"10"`
	ReceiveNotification bool    `json:"receber_notificacoes"`
	Modality            *string `json:"modalidade"`
	Belt                *string `json:"faixa"`
}

// StudentPatchRequest carries only the fields to change.
type StudentPatchRequest struct {
	models.StudentPatch
	BirthDate *string `json:"data_nascimento"`
}

// StudentResponse is a student as returned by the API
type StudentResponse struct {
	ID                  int64   `json:"id"`
	PhotoURL            *string `json:"foto_url"`
	FullName            string  `json:"nome_completo"`
	BirthDate           string  `json:"data_nascimento"`
	TaxID               *string `json:"cpf"`
	WhatsApp            string  `json:"whatsapp"`
	GuardianName        *string `json:"nome_responsavel"`
	GuardianContact     *string `json:"contato_responsavel"`
	DueDay              int     `json:"dia_vencimento"`
	ReceiveNotification bool    `json:"receber_notificacoes"`
	Modality            *string `json:"modalidade"`
	Belt                *string `json:"faixa"`
}

// PhotoURLResponse carries a short-lived download link
type PhotoURLResponse struct {
	URL string `json:"url"`
}

func toStudentResponse(s *models.Student) StudentResponse {
	return StudentResponse{
		ID:                  s.ID,
		PhotoURL:            s.PhotoURL,
		FullName:            s.FullName,
		BirthDate:           s.BirthDate.Format(dateLayout),
		TaxID:               s.TaxID,
		WhatsApp:            s.WhatsApp,
		GuardianName:        s.GuardianName,
		GuardianContact:     s.GuardianContact,
		DueDay:              s.DueDay,
		ReceiveNotification: s.ReceiveNotification,
		Modality:            s.Modality,
		Belt:                s.Belt,
	}
}

// sendStudentError maps service errors onto the error envelope
func sendStudentError(c echo.Context, err error, action string) error {
	var validationErr *services.ValidationError
	var conflictErr *services.ConflictError
	switch {
	case errors.As(err, &validationErr):
		return common.SendValidationError(c, validationErr.Field, validationErr.Message)
	case errors.As(err, &conflictErr):
		return common.SendConflictError(c, conflictErr.Field, conflictErr.Message)
	case errors.Is(err, services.ErrStudentNotFound):
		return common.SendNotFoundError(c, "Student")
	case errors.Is(err, services.ErrPhotoNotFound):
		return common.SendNotFoundError(c, "Photo")
	case errors.Is(err, tenancy.ErrUnknownNamespace):
		return common.SendNotFoundError(c, "Tenant")
	case errors.Is(err, tenancy.ErrInvalidNamespace):
		return common.SendValidationError(c, "X-Tenant-ID", err.Error())
	}
	logger.FromContext(c.Request().Context()).Error("failed to "+action, zap.Error(err))
	return common.SendServerError(c, "Failed to "+action)
}

func studentID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid student id")
	}
	return id, nil
}

func namespaceOf(c echo.Context) (string, bool) {
	return common.GetNamespaceFromContext(c.Request().Context())
}

// CreateStudent creates a student
// @Summary Create student
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Tenant-ID header string true "Tenant namespace"
// @Param request body StudentRequest true "Student"
// @Success 201 {object} StudentResponse
// @Failure 400 {object} common.ErrorResponse
// @Failure 403 {object} common.ErrorResponse
// @Router /api/alunos [post]
func (h *StudentHandlers) CreateStudent(c echo.Context) error {
	namespace, ok := namespaceOf(c)
	if !ok {
		return common.SendValidationError(c, "X-Tenant-ID", "header is required")
	}

	var req StudentRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	birthDate, err := common.ParseDate(req.BirthDate, "data_nascimento")
	if err != nil {
		return common.SendValidationError(c, "data_nascimento", err.Error())
	}

	student := &models.Student{
		FullName:            req.FullName,
		BirthDate:           birthDate,
		TaxID:               req.TaxID,
		WhatsApp:            req.WhatsApp,
		GuardianName:        req.GuardianName,
		GuardianContact:     req.GuardianContact,
		DueDay:              req.DueDay,
		ReceiveNotification: req.ReceiveNotification,
		Modality:            req.Modality,
		Belt:                req.Belt,
	}
	if err := h.studentService.Create(c.Request().Context(), namespace, student); err != nil {
		return sendStudentError(c, err, "create student")
	}
	return c.JSON(http.StatusCreated, toStudentResponse(student))
}

// ListStudents lists the tenant's students
// @Summary List students
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param X-Tenant-ID header string true "Tenant namespace"
// @Param limit query int false "Page size" default(100)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} StudentResponse
// @Router /api/alunos [get]
func (h *StudentHandlers) ListStudents(c echo.Context) error {
	namespace, ok := namespaceOf(c)
	if !ok {
		return common.SendValidationError(c, "X-Tenant-ID", "header is required")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	students, err := h.studentService.List(c.Request().Context(), namespace, limit, offset)
	if err != nil {
		return sendStudentError(c, err, "list students")
	}
	resp := make([]StudentResponse, 0, len(students))
	for _, s := range students {
		resp = append(resp, toStudentResponse(s))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetStudent returns one student
// @Summary Get student
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param X-Tenant-ID header string true "Tenant namespace"
// @Param id path int true "Student ID"
// @Success 200 {object} StudentResponse
// @Failure 404 {object} common.ErrorResponse
// @Router /api/alunos/{id} [get]
func (h *StudentHandlers) GetStudent(c echo.Context) error {
	namespace, ok := namespaceOf(c)
	if !ok {
		return common.SendValidationError(c, "X-Tenant-ID", "header is required")
	}
	id, err := studentID(c)
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	student, err := h.studentService.Get(c.Request().Context(), namespace, id)
	if err != nil {
		return sendStudentError(c, err, "get student")
	}
	return c.JSON(http.StatusOK, toStudentResponse(student))
}

// UpdateStudent changes the fields present in the body
// @Summary Update student
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Tenant-ID header string true "Tenant namespace"
// @Param id path int true "Student ID"
// @Param request body StudentPatchRequest true "Fields to change"
// @Success 200 {object} StudentResponse
// @Failure 400 {object} common.ErrorResponse
// @Failure 404 {object} common.ErrorResponse
// @Router /api/alunos/{id} [put]
func (h *StudentHandlers) UpdateStudent(c echo.Context) error {
	namespace, ok := namespaceOf(c)
	if !ok {
		return common.SendValidationError(c, "X-Tenant-ID", "header is required")
	}
	id, err := studentID(c)
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req StudentPatchRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	patch := req.StudentPatch
	// Photos only change through the upload endpoint.
	patch.PhotoURL = nil
	if req.BirthDate != nil {
		birthDate, err := common.ParseDate(*req.BirthDate, "data_nascimento")
		if err != nil {
			return common.SendValidationError(c, "data_nascimento", err.Error())
		}
		patch.BirthDate = &birthDate
	}
	if patch.Empty() {
		return common.SendClientError(c, "No fields to update")
	}

	student, err := h.studentService.Update(c.Request().Context(), namespace, id, &patch)
	if err != nil {
		return sendStudentError(c, err, "update student")
	}
	return c.JSON(http.StatusOK, toStudentResponse(student))
}

// DeleteStudent removes a student and their photo
// @Summary Delete student
// @Tags Students
// @Security BearerAuth
// @Param X-Tenant-ID header string true "Tenant namespace"
// @Param id path int true "Student ID"
// @Success 204
// @Failure 404 {object} common.ErrorResponse
// @Router /api/alunos/{id} [delete]
func (h *StudentHandlers) DeleteStudent(c echo.Context) error {
	namespace, ok := namespaceOf(c)
	if !ok {
		return common.SendValidationError(c, "X-Tenant-ID", "header is required")
	}
	id, err := studentID(c)
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.studentService.Delete(c.Request().Context(), namespace, id); err != nil {
		return sendStudentError(c, err, "delete student")
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadPhoto stores a student's photo
// @Summary Upload student photo
// @Tags Students
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param X-Tenant-ID header string true "Tenant namespace"
// @Param id path int true "Student ID"
// @Param file formData file true "Image"
// @Success 200 {object} StudentResponse
// @Failure 400 {object} common.ErrorResponse
// @Failure 404 {object} common.ErrorResponse
// @Router /api/alunos/{id}/photo [post]
func (h *StudentHandlers) UploadPhoto(c echo.Context) error {
	namespace, ok := namespaceOf(c)
	if !ok {
		return common.SendValidationError(c, "X-Tenant-ID", "header is required")
	}
	id, err := studentID(c)
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	file, err := c.FormFile("file")
	if err != nil {
		return common.SendValidationError(c, "file", "file is required")
	}
	if file.Size > maxPhotoSize {
		return common.SendValidationError(c, "file", "file must be at most 5MB")
	}
	contentType := file.Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, "image/") {
		return common.SendValidationError(c, "file", "file must be an image")
	}

	src, err := file.Open()
	if err != nil {
		return common.SendClientError(c, "Failed to read file")
	}
	defer src.Close()

	student, err := h.studentService.UploadPhoto(c.Request().Context(), namespace, id, src, file.Size, contentType, file.Filename)
	if err != nil {
		return sendStudentError(c, err, "upload photo")
	}
	return c.JSON(http.StatusOK, toStudentResponse(student))
}

// GetPhoto returns a presigned download URL for the student's photo
// @Summary Get student photo URL
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param X-Tenant-ID header string true "Tenant namespace"
// @Param id path int true "Student ID"
// @Success 200 {object} PhotoURLResponse
// @Failure 404 {object} common.ErrorResponse
// @Router /api/alunos/{id}/photo [get]
func (h *StudentHandlers) GetPhoto(c echo.Context) error {
	namespace, ok := namespaceOf(c)
	if !ok {
		return common.SendValidationError(c, "X-Tenant-ID", "header is required")
	}
	id, err := studentID(c)
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	url, err := h.studentService.PhotoURL(c.Request().Context(), namespace, id)
	if err != nil {
		return sendStudentError(c, err, "get photo")
	}
	return c.JSON(http.StatusOK, PhotoURLResponse{URL: url})
}
