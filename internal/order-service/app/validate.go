package app

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/silkroad-orders/internal/order-service/domain"
)

const (
	msgRequired = "This field is required."
	msgBlank    = "This field may not be blank."
	msgEmail    = "Enter a valid email address."
	msgMinZero  = "Ensure this value is greater than or equal to 0."
	msgMinOne   = "Ensure this value is greater than or equal to 1."
	msgDecimals = "Ensure that there are no more than 2 decimal places."

	// max_digits=10, decimal_places=2
	maxMoneyDigits = 10
)

func msgMaxLength(n int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", n)
}

func msgInvalidChoice(v string) string {
	return fmt.Sprintf("%q is not a valid choice.", v)
}

func msgMissingPK(id int64) string {
	return fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id)
}

// fields applies optional payload values onto an entity, collecting field
// errors. With full set, required fields missing from the payload fail;
// otherwise (partial updates) absent fields keep their current value.
type fields struct {
	verr *domain.ValidationError
	full bool
}

func newFields(full bool) *fields {
	return &fields{verr: domain.NewValidationError(), full: full}
}

func (f *fields) missing(name string, required bool) {
	if required && f.full {
		f.verr.Add(name, msgRequired)
	}
}

// text trims the value; required text may not be blank. maxLen 0 means unbounded.
func (f *fields) text(name string, in *string, dst *string, maxLen int, required bool) {
	if in == nil {
		f.missing(name, required)
		return
	}
	v := strings.TrimSpace(*in)
	switch {
	case required && v == "":
		f.verr.Add(name, msgBlank)
	case maxLen > 0 && utf8.RuneCountInString(v) > maxLen:
		f.verr.Add(name, msgMaxLength(maxLen))
	default:
		*dst = v
	}
}

func (f *fields) email(name string, in *string, dst *string, required bool) {
	if in == nil {
		f.missing(name, required)
		return
	}
	v := strings.TrimSpace(*in)
	if v == "" {
		f.verr.Add(name, msgBlank)
		return
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v || utf8.RuneCountInString(v) > 254 {
		f.verr.Add(name, msgEmail)
		return
	}
	*dst = v
}

// money accepts non-negative amounts with at most 2 decimal places.
func (f *fields) money(name string, in *decimal.Decimal, dst *decimal.Decimal, required bool) {
	if in == nil {
		f.missing(name, required)
		return
	}
	if msg := checkMoney(*in); msg != "" {
		f.verr.Add(name, msg)
		return
	}
	*dst = *in
}

func checkMoney(d decimal.Decimal) string {
	switch {
	case d.IsNegative():
		return msgMinZero
	case d.Exponent() < -2 && !d.Equal(d.Round(2)):
		return msgDecimals
	case len(d.Truncate(0).Abs().String()) > maxMoneyDigits-2:
		return fmt.Sprintf("Ensure that there are no more than %d digits before the decimal point.", maxMoneyDigits-2)
	}
	return ""
}

func (f *fields) nonNegativeInt(name string, in *int, dst *int) {
	if in == nil {
		return
	}
	if *in < 0 {
		f.verr.Add(name, msgMinZero)
		return
	}
	*dst = *in
}

func (f *fields) status(name string, in *domain.OrderStatus, dst *domain.OrderStatus) {
	if in == nil {
		return
	}
	if !in.Valid() {
		f.verr.Add(name, msgInvalidChoice(string(*in)))
		return
	}
	*dst = *in
}

func (f *fields) payment(name string, in *domain.PaymentMethod, dst *domain.PaymentMethod) {
	if in == nil {
		return
	}
	if !in.Valid() {
		f.verr.Add(name, msgInvalidChoice(string(*in)))
		return
	}
	*dst = *in
}

func (f *fields) category(name string, in *domain.Category, dst *domain.Category) {
	if in == nil {
		return
	}
	if !in.Valid() {
		f.verr.Add(name, msgInvalidChoice(string(*in)))
		return
	}
	*dst = *in
}

func (f *fields) err() error {
	return f.verr.OrNil()
}
