package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/expenseflow/expenseflow/internal/application/engine"
	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/application/service"
	"github.com/expenseflow/expenseflow/internal/auth"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	services Services
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, logger Logger) *Handlers {
	return &Handlers{services: services, logger: logger}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// currentClaims returns the verified token claims set by the auth
// middleware, or nil outside an authenticated route.
func currentClaims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid id"})
		return 0, false
	}
	return id, true
}

// fail maps service errors onto HTTP status codes
func (h *Handlers) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, engine.ErrApprovalNotFound),
		errors.Is(err, engine.ErrExpenseNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	case errors.Is(err, service.ErrNotAllowed):
		c.JSON(http.StatusForbidden, Response{Success: false, Error: err.Error()})
	case errors.Is(err, service.ErrNotDraft),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, engine.ErrAlreadyDecided),
		errors.Is(err, engine.ErrInvalidDecision),
		errors.Is(err, service.ErrUserExists):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error("Request failed", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// Signup handles POST /api/auth/signup
func (h *Handlers) Signup(c *gin.Context) {
	var input service.SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	result, err := h.services.Auth.Signup(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: result})
}

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "email and password are required"})
		return
	}

	result, err := h.services.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// ForgotPassword handles POST /api/auth/forgot-password
func (h *Handlers) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "email is required"})
		return
	}

	if err := h.services.Auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// CreateExpenseRequest is the expense creation payload
type CreateExpenseRequest struct {
	Amount      float64  `json:"amount" binding:"required"`
	Currency    string   `json:"currency" binding:"required"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	DateSpent   string   `json:"date_spent"`
	Receipts    []string `json:"receipts"`
	Submit      bool     `json:"submit"`
}

// CreateExpense handles POST /api/expenses
func (h *Handlers) CreateExpense(c *gin.Context) {
	claims := currentClaims(c)

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	input := service.CreateExpenseInput{
		ClaimantID:       claims.UserID,
		OriginalAmount:   req.Amount,
		OriginalCurrency: req.Currency,
		Category:         req.Category,
		Description:      req.Description,
		Receipts:         req.Receipts,
		Submit:           req.Submit,
	}
	if req.DateSpent != "" {
		dateSpent, err := time.Parse("2006-01-02", req.DateSpent)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "date_spent must be YYYY-MM-DD"})
			return
		}
		input.DateSpent = dateSpent
	}

	expense, err := h.services.Expense.CreateExpense(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: expense})
}

// MyExpenses handles GET /api/expenses
func (h *Handlers) MyExpenses(c *gin.Context) {
	claims := currentClaims(c)

	expenses, err := h.services.Expense.MyExpenses(c.Request.Context(), claims.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: expenses})
}

// GetExpense handles GET /api/expenses/:id
func (h *Handlers) GetExpense(c *gin.Context) {
	claims := currentClaims(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	expense, err := h.services.Expense.GetExpense(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if expense.CompanyID != claims.CompanyID {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "not found"})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: expense})
}

// SubmitExpense handles POST /api/expenses/:id/submit
func (h *Handlers) SubmitExpense(c *gin.Context) {
	claims := currentClaims(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	expense, err := h.services.Expense.SubmitExpense(c.Request.Context(), id, claims.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: expense})
}

// ScanReceiptResponse is the stored receipt plus the fields extracted
// from it, so the client can prefill the expense form and attach the
// path on creation.
type ScanReceiptResponse struct {
	ReceiptPath string              `json:"receipt_path"`
	Fields      *port.ParsedReceipt `json:"fields"`
}

// ScanReceipt handles POST /api/receipts/scan
func (h *Handlers) ScanReceipt(c *gin.Context) {
	if h.services.Receipts == nil || h.services.ReceiptFiles == nil {
		c.JSON(http.StatusServiceUnavailable, Response{Success: false, Error: "receipt scanning is not configured"})
		return
	}
	claims := currentClaims(c)

	file, err := c.FormFile("receipt")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "receipt file is required"})
		return
	}

	src, err := file.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	content, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		h.fail(c, err)
		return
	}

	path, err := h.services.ReceiptFiles.Save(claims.UserID, file.Filename, content)
	if err != nil {
		h.fail(c, err)
		return
	}

	parsed, err := h.services.Receipts.Parse(c.Request.Context(), path)
	if err != nil {
		h.services.ReceiptFiles.Remove(path)
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: ScanReceiptResponse{ReceiptPath: path, Fields: parsed}})
}

// PendingApprovals handles GET /api/approvals/pending
func (h *Handlers) PendingApprovals(c *gin.Context) {
	claims := currentClaims(c)

	tasks, err := h.services.Approval.ListPendingForApprover(c.Request.Context(), claims.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: tasks})
}

// DecideRequest is the decision payload
type DecideRequest struct {
	Decision string `json:"decision" binding:"required"`
	Comments string `json:"comments"`
}

// Decide handles POST /api/approvals/:id/decide
func (h *Handlers) Decide(c *gin.Context) {
	claims := currentClaims(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "decision is required"})
		return
	}

	result, err := h.services.Approval.Decide(c.Request.Context(), id, claims.UserID, entity.Decision(req.Decision), req.Comments)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// CreateRule handles POST /api/admin/rules
func (h *Handlers) CreateRule(c *gin.Context) {
	claims := currentClaims(c)

	var input service.CreateRuleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}
	input.CompanyID = claims.CompanyID

	rule, err := h.services.Admin.CreateRule(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: rule})
}

// ListRules handles GET /api/admin/rules
func (h *Handlers) ListRules(c *gin.Context) {
	claims := currentClaims(c)

	rules, err := h.services.Admin.ListRules(c.Request.Context(), claims.CompanyID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: rules})
}

// AllExpenses handles GET /api/admin/expenses
func (h *Handlers) AllExpenses(c *gin.Context) {
	claims := currentClaims(c)

	expenses, err := h.services.Admin.AllExpenses(c.Request.Context(), claims.CompanyID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: expenses})
}

// OverrideRequest is the admin override payload
type OverrideRequest struct {
	Status string `json:"status" binding:"required"`
}

// OverrideStatus handles POST /api/admin/expenses/:id/override
func (h *Handlers) OverrideStatus(c *gin.Context) {
	claims := currentClaims(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "status is required"})
		return
	}

	expense, err := h.services.Admin.OverrideStatus(c.Request.Context(), claims.CompanyID, id, entity.ExpenseStatus(req.Status))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: expense})
}

// ExportReport handles GET /api/admin/expenses/report
func (h *Handlers) ExportReport(c *gin.Context) {
	claims := currentClaims(c)

	data, err := h.services.Admin.ExportExpenseReport(c.Request.Context(), claims.CompanyID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="expense-report.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// CreateUser handles POST /api/admin/users
func (h *Handlers) CreateUser(c *gin.Context) {
	claims := currentClaims(c)

	var input service.CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}
	input.CompanyID = claims.CompanyID

	user, err := h.services.User.CreateUser(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: user})
}

// ListUsers handles GET /api/admin/users
func (h *Handlers) ListUsers(c *gin.Context) {
	claims := currentClaims(c)

	users, err := h.services.User.ListUsers(c.Request.Context(), claims.CompanyID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: users})
}

// UpdateUser handles PUT /api/admin/users/:id
func (h *Handlers) UpdateUser(c *gin.Context) {
	claims := currentClaims(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	var input service.UpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	user, err := h.services.User.UpdateUser(c.Request.Context(), claims.CompanyID, id, input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: user})
}

// ResendPassword handles POST /api/admin/users/:id/resend-password
func (h *Handlers) ResendPassword(c *gin.Context) {
	claims := currentClaims(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.services.User.ResendPassword(c.Request.Context(), claims.CompanyID, id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}
