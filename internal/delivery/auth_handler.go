package delivery

import (
	"net/http"

	"shop_service/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	useCase usecase.AuthUseCase
	log     *logrus.Logger
}

func NewAuthHandler(uc usecase.AuthUseCase, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		useCase: uc,
		log:     logger,
	}
}

func (h *AuthHandler) RegisterRoutes(router gin.IRouter) {
	auth := router.Group("/auth")
	{
		auth.POST("/send-otp", h.SendOTP)
		auth.POST("/signup", h.Signup)
		auth.POST("/login", h.Login)
	}
}

type sendOTPRequest struct {
	Email string `json:"email" binding:"required"`
}

type signupRequest struct {
	EmailOrPhone string `json:"emailOrPhone" binding:"required"`
	Password     string `json:"password" binding:"required"`
	FirstName    string `json:"firstName" binding:"required"`
	LastName     string `json:"lastName" binding:"required"`
	OTP          string `json:"otp"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req sendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Email is required")
		return
	}

	if err := h.useCase.SendOTP(c.Request.Context(), req.Email); err != nil {
		h.log.Warnf("Failed to send OTP to %s: %v", req.Email, err)
		failWith(c, "Failed to send OTP", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "OTP sent successfully", nil)
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "All fields are required")
		return
	}

	result, err := h.useCase.Signup(c.Request.Context(), usecase.SignupInput{
		EmailOrPhone: req.EmailOrPhone,
		Password:     req.Password,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		OTP:          req.OTP,
	})
	if err != nil {
		h.log.Warnf("Signup failed for %s: %v", req.EmailOrPhone, err)
		failWith(c, "Signup failed", err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "User registered successfully", result)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	result, err := h.useCase.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		failWith(c, "Login failed", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Login successful", result)
}
