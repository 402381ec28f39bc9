package admin

import (
	"strings"

	"optik-backend/internal/database"
	"optik-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type CompanyResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

type CreateCompanyRequest struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Phone   *string `json:"phone"` // Opsiyonel
	Email   string  `json:"email"`
}

type UpdateCompanyRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
}

type CreateCompanyAdminRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CompanyAdminResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CompanyID *uint  `json:"company_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

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

func companyResponse(co models.Company) CompanyResponse {
	return CompanyResponse{
		ID:        co.ID,
		Name:      co.Name,
		Slug:      co.Slug,
		Address:   co.Address,
		Phone:     co.Phone,
		Email:     co.Email,
		CreatedAt: co.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// ----------------------------------------
// ŞİRKET CRUD (sadece super_admin)
// ----------------------------------------

func CreateCompanyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCompanyRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Şirket adı boş olamaz")
		}

		slug := slugify(body.Name)
		if slug == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Şirket adından geçerli bir slug üretilemedi")
		}

		var exist models.Company
		if err := database.DB.Where("name = ? OR slug = ?", body.Name, slug).First(&exist).Error; err == nil {
			return fiber.NewError(fiber.StatusConflict, "Bu şirket adı zaten kayıtlı")
		}

		company := models.Company{
			Name:    body.Name,
			Slug:    slug,
			Address: body.Address,
			Email:   body.Email,
		}
		if body.Phone != nil {
			company.Phone = strings.TrimSpace(*body.Phone)
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&company).Error; err != nil {
				return err
			}
			// vitrin için varsayılan tema
			theme := models.ThemeSettings{CompanyID: company.ID, StoreName: company.Name}
			return tx.Create(&theme).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şirket oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(companyResponse(company))
	}
}

func ListCompaniesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var companies []models.Company
		if err := database.DB.Find(&companies).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şirketler listelenemedi")
		}

		res := make([]CompanyResponse, 0, len(companies))
		for _, co := range companies {
			res = append(res, companyResponse(co))
		}
		return c.JSON(res)
	}
}

func GetCompanyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var company models.Company
		if err := database.DB.First(&company, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Şirket bulunamadı")
		}
		return c.JSON(companyResponse(company))
	}
}

func UpdateCompanyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var company models.Company
		if err := database.DB.First(&company, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Şirket bulunamadı")
		}

		var body UpdateCompanyRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Şirket adı boş olamaz")
			}
			// Slug sabit kalır; vitrin URL'leri kırılmasın
			company.Name = name
		}
		if body.Address != nil {
			company.Address = *body.Address
		}
		if body.Phone != nil {
			company.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.Email != nil {
			company.Email = *body.Email
		}

		if err := database.DB.Save(&company).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şirket güncellenemedi")
		}
		return c.JSON(companyResponse(company))
	}
}

func DeleteCompanyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var company models.Company
		if err := database.DB.First(&company, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Şirket bulunamadı")
		}

		// İş verisi olan şirket silinmez
		var saleCount int64
		database.DB.Model(&models.Sale{}).Where("company_id = ?", company.ID).Count(&saleCount)
		if saleCount > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Satış kaydı olan şirket silinemez")
		}

		if err := database.DB.Delete(&company).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şirket silinemedi")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ----------------------------------------
// ŞİRKET ADMİNİ OLUŞTURMA
// POST /api/admin/companies/:id/admins
// ----------------------------------------

func CreateCompanyAdminHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID := c.Params("id")

		var company models.Company
		if err := database.DB.First(&company, "id = ?", companyID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Şirket bulunamadı")
		}

		var body CreateCompanyAdminRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		body.Email = strings.ToLower(strings.TrimSpace(body.Email))
		body.Name = strings.TrimSpace(body.Name)

		if body.Name == "" || body.Email == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "İsim, email ve şifre zorunlu")
		}

		var exist models.User
		if err := database.DB.Where("email = ?", body.Email).First(&exist).Error; err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Bu email zaten kayıtlı")
		}

		hash, _ := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)

		user := models.User{
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: string(hash),
			Role:         models.RoleCompanyAdmin,
			CompanyID:    &company.ID,
		}

		if err := database.DB.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şirket admini oluşturulamadı")
		}

		// NOT: Şifre sadece oluşturma sırasında bir kez döndürülür
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":         user.ID,
			"name":       user.Name,
			"email":      user.Email,
			"role":       user.Role,
			"company_id": user.CompanyID,
			"password":   body.Password,
		})
	}
}

// GET /api/admin/companies/:id/admins
func ListCompanyAdminsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID := c.Params("id")

		var users []models.User
		if err := database.DB.
			Where("company_id = ? AND role = ?", companyID, models.RoleCompanyAdmin).
			Order("created_at DESC").
			Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Adminler listelenemedi")
		}

		res := make([]CompanyAdminResponse, 0, len(users))
		for _, u := range users {
			res = append(res, CompanyAdminResponse{
				ID:        u.ID,
				Name:      u.Name,
				Email:     u.Email,
				Role:      string(u.Role),
				CompanyID: u.CompanyID,
				CreatedAt: u.CreatedAt.Format("2006-01-02 15:04:05"),
				UpdatedAt: u.UpdatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		return c.JSON(res)
	}
}
