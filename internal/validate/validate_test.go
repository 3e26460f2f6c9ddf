package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotEmpty(t *testing.T) {
	assert.True(t, NotEmpty("style", "   ").Failed())
	assert.False(t, NotEmpty("style", "ST001").Failed())
}

func TestCodePatternRejectsSymbols(t *testing.T) {
	assert.False(t, CodePattern("style", "ST001").Failed())
	assert.True(t, CodePattern("style", "ST-001").Failed())
}

func TestIntegerRange(t *testing.T) {
	assert.False(t, Integer("quantity", "5", 1, 999999).Failed())
	assert.True(t, Integer("quantity", "0", 1, 999999).Failed())
	assert.True(t, Integer("quantity", "abc", 1, 999999).Failed())
}

func TestDecimalRejectsExtraFractionalDigits(t *testing.T) {
	assert.False(t, Decimal("mrp", "2999.99", 0.01, 1_000_000).Failed())
	assert.True(t, Decimal("mrp", "2999.999", 0.01, 1_000_000).Failed())
	assert.True(t, Decimal("mrp", "0.00", 0.01, 1_000_000).Failed())
}

func TestDateIsNonLenient(t *testing.T) {
	assert.False(t, Date("day", "2026-01-15").Failed())
	assert.True(t, Date("day", "2026-13-01").Failed())
	assert.True(t, Date("day", "01/15/2026").Failed())
}

func TestValidateRowStyleBindings(t *testing.T) {
	row := map[string]string{
		"style": "ST001", "brand": "Nike", "category": "Footwear",
		"sub_category": "Shoes", "mrp": "2999.00", "gender": "Male",
	}
	errs := ValidateRow(StyleBindings, row)
	assert.Empty(t, errs)
}

func TestValidateRowStyleBindingsCatchesBadMrp(t *testing.T) {
	row := map[string]string{
		"style": "ST001", "brand": "Nike", "category": "Footwear",
		"sub_category": "Shoes", "mrp": "-5", "gender": "Male",
	}
	errs := ValidateRow(StyleBindings, row)
	assert.NotEmpty(t, errs)
}

func TestValidateRowSaleBindings(t *testing.T) {
	row := map[string]string{
		"day": "2026-01-15", "sku": "SKU001", "channel": "BR01",
		"quantity": "3", "discount": "0", "revenue": "299.99",
	}
	errs := ValidateRow(SaleBindings, row)
	assert.Empty(t, errs)
}
