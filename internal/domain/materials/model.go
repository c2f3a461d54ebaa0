package materials

import "time"

// NearExpiryDays горизонт «скоро истекает» в днях, не настраивается.
const NearExpiryDays = 30

const DateLayout = "2006-01-02"

type Status string

const (
	StatusAll     Status = "all"
	StatusExpired Status = "expired"
	StatusActive  Status = "active"
)

// ParseStatus неизвестное/пустое значение = all (без фильтра по дате).
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusExpired:
		return StatusExpired
	case StatusActive:
		return StatusActive
	default:
		return StatusAll
	}
}

type Material struct {
	ID         int64
	Name       string
	Code       string
	Quantity   int
	ExpiryDate time.Time // дата (полночь UTC), время суток не учитывается
}

// DaysLeft сколько дней осталось до истечения (отрицательное, если уже истёк).
func (m Material) DaysLeft(today time.Time) int {
	d := m.ExpiryDate.Sub(DateOf(today))
	return int(d.Hours() / 24)
}

func (m Material) Expired(today time.Time) bool {
	return m.ExpiryDate.Before(DateOf(today))
}

// Filter параметры списка: поиск по name/code (OR) AND статус.
type Filter struct {
	Search string
	Status Status
}

// Query то, что получает репозиторий: Today уже усечён до даты.
type Query struct {
	Search string
	Status Status
	Today  time.Time
}

// Draft разобранный запрос на создание.
type Draft struct {
	Name       string
	Code       string
	Quantity   int
	ExpiryDate time.Time
}

// Changes разобранный запрос на редактирование. Кода здесь нет: code неизменяем.
type Changes struct {
	Name       string
	Quantity   int
	ExpiryDate time.Time
}

// DateOf усекает t до календарной даты (в зоне t) и возвращает полночь UTC.
func DateOf(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

// NearExpiryCutoff последний день, который ещё считается «скоро истекает».
func NearExpiryCutoff(today time.Time) time.Time {
	return DateOf(today).AddDate(0, 0, NearExpiryDays)
}
