package materials

import (
	"strconv"
	"strings"
	"time"
)

var expiryLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

func ParseQuantity(s string) (int, error) {
	v := strings.TrimSpace(s)
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &ParseError{Field: "quantity", Value: s, Err: err}
	}
	// отрицательные значения не запрещаем
	return n, nil
}

// ParseExpiryDate принимает дату (или дату со временем), время суток отбрасывается.
func ParseExpiryDate(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return time.Time{}, &ParseError{Field: "expiry_date", Value: s, Err: ErrEmptyValue}
	}
	var lastErr error
	for _, layout := range expiryLayouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			return DateOf(t), nil
		}
		lastErr = err
	}
	return time.Time{}, &ParseError{Field: "expiry_date", Value: s, Err: lastErr}
}

// requireText значение сохраняется как есть, пробелы проверяются только на пустоту.
func requireText(field, s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", &ParseError{Field: field, Value: s, Err: ErrEmptyValue}
	}
	return s, nil
}

// ParseDraft разбор полей формы создания.
func ParseDraft(name, code, quantity, expiryDate string) (Draft, error) {
	var d Draft
	var err error
	if d.Name, err = requireText("name", name); err != nil {
		return d, err
	}
	if d.Code, err = requireText("code", code); err != nil {
		return d, err
	}
	if d.Quantity, err = ParseQuantity(quantity); err != nil {
		return d, err
	}
	if d.ExpiryDate, err = ParseExpiryDate(expiryDate); err != nil {
		return d, err
	}
	return d, nil
}

// ParseChanges разбор полей формы редактирования (код не меняется).
func ParseChanges(name, quantity, expiryDate string) (Changes, error) {
	var c Changes
	var err error
	if c.Name, err = requireText("name", name); err != nil {
		return c, err
	}
	if c.Quantity, err = ParseQuantity(quantity); err != nil {
		return c, err
	}
	if c.ExpiryDate, err = ParseExpiryDate(expiryDate); err != nil {
		return c, err
	}
	return c, nil
}
