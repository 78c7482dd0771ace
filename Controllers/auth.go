package Controllers

import (
	"errors"
	"strconv"
	"time"

	"Motorpool/Models"
	"Motorpool/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthHandler contains the login and registration handlers
type AuthHandler struct {
	DB *gorm.DB
}

func NewAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{DB: db}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates drivers first, then supervisors, matching the original
// dual-table login flow.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"message": validationMessages(err),
		})
	}

	var driver Models.Driver
	err := h.DB.Where("email_address = ?", req.Email).First(&driver).Error
	if err == nil && bcrypt.CompareHashAndPassword(driver.Password, []byte(req.Password)) == nil {
		return h.issueToken(c, driver.ID, middleware.RoleDriver, "", driver.FullName())
	}

	var supervisor Models.Supervisor
	err = h.DB.Where("email = ?", req.Email).First(&supervisor).Error
	if err == nil && bcrypt.CompareHashAndPassword(supervisor.Password, []byte(req.Password)) == nil {
		return h.issueToken(c, supervisor.ID, middleware.RoleSupervisor, supervisor.Location, supervisor.FullName())
	}

	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"message": "Invalid email or password.",
	})
}

func (h *AuthHandler) issueToken(c *fiber.Ctx, userID uint, role, location, name string) error {
	claims := middleware.Claims{
		Role:     role,
		Location: location,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(middleware.SecretKey())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to sign token",
			"message": err.Error(),
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     "jwt",
		Value:    token,
		Expires:  time.Now().Add(24 * time.Hour),
		HTTPOnly: true,
	})

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"role":    role,
		"name":    name,
	})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     "jwt",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})
	return c.JSON(fiber.Map{"message": "Logged out"})
}

type registerDriverRequest struct {
	FirstName               string `json:"first_name" validate:"required"`
	MiddleName              string `json:"middle_name"`
	LastName                string `json:"last_name" validate:"required"`
	EmployeeNo              string `json:"employee_no" validate:"required"`
	DateOfBirth             string `json:"date_of_birth" validate:"required"`
	Age                     int    `json:"age" validate:"gte=18"`
	EmailAddress            string `json:"email_address" validate:"required,email"`
	ContactNumber           string `json:"contact_number" validate:"required"`
	Address                 string `json:"address"`
	DriverLicenseNumber     string `json:"driver_license_number" validate:"required"`
	DriverLicenseExpiration string `json:"driver_license_expiration" validate:"required"`
	Password                string `json:"password" validate:"required,min=8"`
}

// RegisterDriver creates a driver account.
func (h *AuthHandler) RegisterDriver(c *fiber.Ctx) error {
	var req registerDriverRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"message": validationMessages(err),
		})
	}

	var existing int64
	h.DB.Model(&Models.Driver{}).
		Where("email_address = ? OR employee_no = ?", req.EmailAddress, req.EmployeeNo).
		Count(&existing)
	if existing > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "A driver with this email or employee number already exists.",
		})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to hash password",
			"message": err.Error(),
		})
	}

	driver := Models.Driver{
		FirstName:               req.FirstName,
		MiddleName:              req.MiddleName,
		LastName:                req.LastName,
		EmployeeNo:              req.EmployeeNo,
		DateOfBirth:             req.DateOfBirth,
		Age:                     req.Age,
		EmailAddress:            req.EmailAddress,
		ContactNumber:           req.ContactNumber,
		Address:                 req.Address,
		DriverLicenseNumber:     req.DriverLicenseNumber,
		DriverLicenseExpiration: req.DriverLicenseExpiration,
		Password:                hash,
	}
	if err := h.DB.Create(&driver).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to register driver",
			"message": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Driver registered successfully",
		"driver_id": driver.ID,
	})
}

type registerSupervisorRequest struct {
	FirstName     string `json:"first_name" validate:"required"`
	MiddleName    string `json:"middle_name"`
	LastName      string `json:"last_name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	ContactNumber string `json:"contact_number" validate:"required"`
	Location      string `json:"location" validate:"required"`
	Password      string `json:"password" validate:"required,min=8"`
}

// RegisterSupervisor creates a supervisor account scoped to one location.
func (h *AuthHandler) RegisterSupervisor(c *fiber.Ctx) error {
	var req registerSupervisorRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"message": validationMessages(err),
		})
	}

	var existing int64
	h.DB.Model(&Models.Supervisor{}).Where("email = ?", req.Email).Count(&existing)
	if existing > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "A supervisor with this email already exists.",
		})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to hash password",
			"message": err.Error(),
		})
	}

	supervisor := Models.Supervisor{
		FirstName:     req.FirstName,
		MiddleName:    req.MiddleName,
		LastName:      req.LastName,
		Email:         req.Email,
		ContactNumber: req.ContactNumber,
		Location:      req.Location,
		Password:      hash,
	}
	if err := h.DB.Create(&supervisor).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to register supervisor",
			"message": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":       "Supervisor registered successfully",
		"supervisor_id": supervisor.ID,
	})
}

// currentUserID pulls the authenticated id set by the Verify middleware.
func currentUserID(c *fiber.Ctx) (uint, error) {
	id, ok := c.Locals("userID").(uint)
	if !ok {
		return 0, errors.New("no authenticated user in context")
	}
	return id, nil
}

// currentLocation pulls the supervisor's location scope.
func currentLocation(c *fiber.Ctx) (string, error) {
	location, ok := c.Locals("location").(string)
	if !ok || location == "" {
		return "", errors.New("no location scope in context")
	}
	return location, nil
}
