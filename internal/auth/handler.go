package auth

import (
	"fmt"
	"strings"

	"optik-backend/internal/config"
	"optik-backend/internal/database"
	"optik-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterCompanyRequest struct {
	CompanyName string `json:"company_name"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// slugify: Şirket adından vitrin URL anahtarı üret ("Optik Merkez" -> "optik-merkez")
func slugify(s string) string {
	replacements := map[rune]string{
		'ç': "c", 'Ç': "c",
		'ğ': "g", 'Ğ': "g",
		'ı': "i", 'İ': "i",
		'ö': "o", 'Ö': "o",
		'ş': "s", 'Ş': "s",
		'ü': "u", 'Ü': "u",
	}

	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if replacement, ok := replacements[r]; ok {
			b.WriteString(replacement)
			continue
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// POST /api/auth/register-company
// Şirket kaydı: Company + ilk company_admin kullanıcısı tek transaction'da oluşur.
func RegisterCompanyHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterCompanyRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.CompanyName = strings.TrimSpace(body.CompanyName)
		body.Name = strings.TrimSpace(body.Name)
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		if body.CompanyName == "" || body.Name == "" || body.Email == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Şirket adı, isim, email ve şifre zorunlu")
		}

		slug := slugify(body.CompanyName)
		if slug == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Şirket adından geçerli bir vitrin adresi üretilemedi")
		}

		var count int64
		database.DB.Model(&models.Company{}).
			Where("name = ? OR slug = ?", body.CompanyName, slug).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "Bu şirket adı zaten kayıtlı")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre hashlenemedi")
		}

		var company models.Company
		var user models.User
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			company = models.Company{
				Name:    body.CompanyName,
				Slug:    slug,
				Phone:   body.Phone,
				Address: body.Address,
				Email:   body.Email,
			}
			if err := tx.Create(&company).Error; err != nil {
				return err
			}

			user = models.User{
				CompanyID:    &company.ID,
				Name:         body.Name,
				Email:        body.Email,
				PasswordHash: string(hash),
				Role:         models.RoleCompanyAdmin,
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}

			// Varsayılan tema ile başlasın
			theme := models.ThemeSettings{
				CompanyID: company.ID,
				StoreName: company.Name,
			}
			return tx.Create(&theme).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("Şirket kaydı oluşturulamadı: %v", err))
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"company": fiber.Map{
				"id":   company.ID,
				"name": company.Name,
				"slug": company.Slug,
			},
			"user": fiber.Map{
				"id":    user.ID,
				"email": user.Email,
				"role":  user.Role,
			},
		})
	}
}

// POST /api/auth/register-super-admin
// İlk kurulum için; zaten bir super admin varsa ikinciyi engelle.
func RegisterSuperAdminHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		if body.Email == "" || body.Password == "" || body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "İsim, email ve şifre zorunlu")
		}

		var count int64
		database.DB.Model(&models.User{}).
			Where("role = ?", models.RoleSuperAdmin).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusForbidden, "Zaten bir super admin var")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre hashlenemedi")
		}

		user := models.User{
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: string(hash),
			Role:         models.RoleSuperAdmin,
		}

		if err := database.DB.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":    user.ID,
			"email": user.Email,
			"role":  user.Role,
		})
	}
}

func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var user models.User
		if err := database.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email veya şifre hatalı")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email veya şifre hatalı")
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Token oluşturulamadı")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user": fiber.Map{
				"id":         user.ID,
				"name":       user.Name,
				"email":      user.Email,
				"role":       user.Role,
				"company_id": user.CompanyID,
			},
		})
	}
}

func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userIDVal := c.Locals(CtxUserIDKey)
		roleVal := c.Locals(CtxUserRoleKey)
		companyIDVal := c.Locals(CtxCompanyIDKey)

		var user models.User
		if userID, ok := userIDVal.(uint); ok {
			if err := database.DB.First(&user, userID).Error; err == nil {
				response := fiber.Map{
					"user_id":    user.ID,
					"name":       user.Name,
					"email":      user.Email,
					"role":       user.Role,
					"company_id": user.CompanyID,
				}

				if user.CompanyID != nil {
					var company models.Company
					if err := database.DB.First(&company, *user.CompanyID).Error; err == nil {
						response["company"] = fiber.Map{
							"id":      company.ID,
							"name":    company.Name,
							"slug":    company.Slug,
							"address": company.Address,
							"phone":   company.Phone,
						}
					}
				}

				return c.JSON(response)
			}
		}

		// Fallback: Eğer veritabanından çekilemezse locals'dan döndür
		return c.JSON(fiber.Map{
			"user_id":    userIDVal,
			"role":       roleVal,
			"company_id": companyIDVal,
		})
	}
}
