package ledger

import (
	"errors"
	"fmt"
	"strings"

	"optik-backend/internal/models"

	"gorm.io/gorm"
)

// Hata mesajları İngilizce: mevcut dashboard bu metinleri parse ediyor,
// değiştirme. Handler katmanı bunları "Failed to deduct inventory: ..."
// önekiyle 400 olarak döner.
var (
	ErrItemNotFound      = errors.New("inventory item not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Deduct: Şirket içinde birebir isim eşleşmesiyle stok düşer ve düşüm
// öncesi birim fiyatı döner. Boş isim "yapacak iş yok" demektir, hata değil.
// Stok guard'ı UPDATE koşulunda: total_stock >= qty sağlanmadan satır
// değişmez, dolayısıyla eşzamanlı isteklerde bile stok negatife inemez.
// tx çağıranın unit-of-work'üdür; satış akışı tüm düşümleri ve satış
// satırını tek transaction'da toplar.
func Deduct(tx *gorm.DB, companyID uint, itemName string, qty int) (float64, error) {
	name := strings.TrimSpace(itemName)
	if name == "" || qty <= 0 {
		return 0, nil
	}

	var item models.InventoryItem
	err := tx.Where("company_id = ? AND name = ?", companyID, name).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: %q", ErrItemNotFound, name)
		}
		return 0, err
	}

	if item.TotalStock < qty {
		return 0, fmt.Errorf("%w: %q (stock %d, requested %d)", ErrInsufficientStock, name, item.TotalStock, qty)
	}

	res := tx.Model(&models.InventoryItem{}).
		Where("id = ? AND total_stock >= ?", item.ID, qty).
		UpdateColumn("total_stock", gorm.Expr("total_stock - ?", qty))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		// First ile UPDATE arasında başka bir transaction stoku bitirdi
		return 0, fmt.Errorf("%w: %q", ErrInsufficientStock, name)
	}

	return item.UnitPrice, nil
}

// Restore: Stok iade. Eşleşen kayıt yoksa sessizce geçer; bu asimetri
// (deduct sesli, restore sessiz) mevcut sistemden bilinçli olarak korunuyor.
func Restore(tx *gorm.DB, companyID uint, itemName string, qty int) error {
	name := strings.TrimSpace(itemName)
	if name == "" || qty <= 0 {
		return nil
	}

	var item models.InventoryItem
	err := tx.Where("company_id = ? AND name = ?", companyID, name).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	return tx.Model(&models.InventoryItem{}).
		Where("id = ?", item.ID).
		UpdateColumn("total_stock", gorm.Expr("total_stock + ?", qty)).Error
}

// DeductByID: ID ile stok düşümü (zayiat gibi isim yerine kayıt seçilen akışlar).
// Aynı guard, aynı hatalar.
func DeductByID(tx *gorm.DB, companyID, itemID uint, qty int) error {
	if qty <= 0 {
		return nil
	}

	var item models.InventoryItem
	err := tx.Where("company_id = ? AND id = ?", companyID, itemID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: id=%d", ErrItemNotFound, itemID)
		}
		return err
	}

	if item.TotalStock < qty {
		return fmt.Errorf("%w: %q (stock %d, requested %d)", ErrInsufficientStock, item.Name, item.TotalStock, qty)
	}

	res := tx.Model(&models.InventoryItem{}).
		Where("id = ? AND total_stock >= ?", item.ID, qty).
		UpdateColumn("total_stock", gorm.Expr("total_stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %q", ErrInsufficientStock, item.Name)
	}
	return nil
}

// AddByID: ID ile stok girişi (tedarikçi alımı). Kayıt yoksa hata döner;
// alım mevcut bir stok kalemine yapılır.
func AddByID(tx *gorm.DB, companyID, itemID uint, qty int) error {
	if qty <= 0 {
		return nil
	}

	res := tx.Model(&models.InventoryItem{}).
		Where("company_id = ? AND id = ?", companyID, itemID).
		UpdateColumn("total_stock", gorm.Expr("total_stock + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id=%d", ErrItemNotFound, itemID)
	}
	return nil
}
