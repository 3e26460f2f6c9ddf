package validate

// Field range defaults from §4.5.
const (
	codeMinLen = 3
	codeMaxLen = 50

	nameMinLen = 1
	nameMaxLen = 255

	quantityMin = 1
	quantityMax = 999999

	priceMin = 0.01
	priceMax = 1_000_000

	discountMin = 0
	discountMax = 1_000_000
)

// RowValidator validates one field of a row map and returns every
// failure (normally zero or one, but a field can carry multiple
// rules).
type RowValidator func(fieldName, value string) []Result

func chain(rules ...func(field, value string) Result) RowValidator {
	return func(field, value string) []Result {
		var results []Result
		for _, rule := range rules {
			if r := rule(field, value); r.Failed() {
				results = append(results, r)
			}
		}
		return results
	}
}

func codeField(field, value string) []Result {
	return chain(
		NotEmpty,
		func(f, v string) Result { return StringLength(f, v, codeMinLen, codeMaxLen) },
		CodePattern,
	)(field, value)
}

func nameField(field, value string) []Result {
	return chain(
		NotEmpty,
		func(f, v string) Result { return StringLength(f, v, nameMinLen, nameMaxLen) },
		AlphanumericName,
	)(field, value)
}

func shortAlphaField(field, value string) []Result {
	return chain(
		NotEmpty,
		func(f, v string) Result { return StringLength(f, v, 1, 50) },
		AlphanumericName,
	)(field, value)
}

func quantityField(field, value string) []Result {
	return chain(
		NotEmpty,
		func(f, v string) Result { return Integer(f, v, quantityMin, quantityMax) },
	)(field, value)
}

func priceField(field, value string) []Result {
	return chain(
		NotEmpty,
		func(f, v string) Result { return Decimal(f, v, priceMin, priceMax) },
	)(field, value)
}

func discountField(field, value string) []Result {
	return chain(
		NotEmpty,
		func(f, v string) Result { return Decimal(f, v, discountMin, discountMax) },
	)(field, value)
}

func dateField(field, value string) []Result {
	return chain(NotEmpty, Date)(field, value)
}

// StyleBindings validates a styles-upload row.
var StyleBindings = map[string]RowValidator{
	"style":        codeField,
	"brand":        nameField,
	"category":     nameField,
	"sub_category": nameField,
	"mrp":          priceField,
	"gender":       shortAlphaField,
}

// SkuBindings validates a skus-upload row.
var SkuBindings = map[string]RowValidator{
	"sku":   codeField,
	"style": codeField,
	"size":  shortAlphaField,
}

// StoreBindings validates a stores-upload row.
var StoreBindings = map[string]RowValidator{
	"branch": codeField,
	"city":   nameField,
}

// SaleBindings validates a sales-upload row.
var SaleBindings = map[string]RowValidator{
	"day":      dateField,
	"sku":      codeField,
	"channel":  codeField,
	"quantity": quantityField,
	"discount": discountField,
	"revenue":  discountField,
}

// ValidateRow runs every binding against the row map and returns a
// flat list of field/message failures.
func ValidateRow(bindings map[string]RowValidator, row map[string]string) []FieldError {
	var errs []FieldError
	for field, validator := range bindings {
		for _, r := range validator(field, row[field]) {
			errs = append(errs, FieldError{Field: field, Message: r.Message})
		}
	}
	return errs
}

// FieldError is one failed validation on one field.
type FieldError struct {
	Field   string
	Message string
}
