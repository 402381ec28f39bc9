package validation

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// Struct: DTO'yu tag'lerine göre doğrular, hata varsa 400'e çevirir.
// Handler'lar iş kuralına girmeden önce bunu çağırır.
func Struct(s any) error {
	if err := validate.Struct(s); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Doğrulama hatası: "+err.Error())
	}
	return nil
}
