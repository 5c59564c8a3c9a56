package handler

import (
	"net/http"

	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	uc *usecase.AuthUsecase
}

func NewAuthHandler(uc *usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/auth")
	g.POST("/signup", h.signup)
	g.POST("/signin", h.signin)
}

// /auth/signup のリクエストボディ。additionalDataはoriginalのフォーム構造に合わせる。
type signupRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	UserType       string `json:"userType"`
	AdditionalData struct {
		FirstName            string `json:"firstName"`
		LastName             string `json:"lastName"`
		Phone                string `json:"phone"`
		Address              string `json:"address"`
		City                 string `json:"city"`
		ZipCode              string `json:"zipCode"`
		NewsletterSubscribed bool   `json:"newsletterSubscribed"`
		PositionInterest     string `json:"positionInterest"`
		ExperienceLevel      string `json:"experienceLevel"`
		Availability         string `json:"availability"`
		Bio                  string `json:"bio"`
		JobAlerts            bool   `json:"jobAlerts"`
	} `json:"additionalData"`
}

func (h *AuthHandler) signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.SignUp(c.Request().Context(), usecase.SignUpInput{
		Email:                req.Email,
		Password:             req.Password,
		UserType:             req.UserType,
		FirstName:            req.AdditionalData.FirstName,
		LastName:             req.AdditionalData.LastName,
		Phone:                req.AdditionalData.Phone,
		Address:              req.AdditionalData.Address,
		City:                 req.AdditionalData.City,
		ZipCode:              req.AdditionalData.ZipCode,
		NewsletterSubscribed: req.AdditionalData.NewsletterSubscribed,
		PositionInterest:     req.AdditionalData.PositionInterest,
		ExperienceLevel:      req.AdditionalData.ExperienceLevel,
		Availability:         req.AdditionalData.Availability,
		Bio:                  req.AdditionalData.Bio,
		JobAlerts:            req.AdditionalData.JobAlerts,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    out,
	})
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) signin(c echo.Context) error {
	var req signinRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.SignIn(c.Request().Context(), usecase.SignInInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    out,
	})
}
