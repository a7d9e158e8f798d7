// Package store определяет интерфейсы хранилищ и их реализации:
// PostgreSQL (боевая) и in-memory (для тестов и локальной разработки).
package store

// ListParams - общие параметры пагинации для списковых запросов.
// Нормализация значений (страница >= 1, ограничение размера) выполняется
// на уровне HTTP-обработчиков.
type ListParams struct {
	Page     int
	PageSize int
}

// LimitOffset переводит параметры страницы в LIMIT/OFFSET.
func (p ListParams) LimitOffset() (limit, offset int) {
	return p.PageSize, (p.Page - 1) * p.PageSize
}

// UserListParams - параметры для списка пользователей.
type UserListParams struct {
	ListParams
	Search   string // Подстрока username (регистронезависимо)
	Username string // Точное совпадение username
}

// CatalogListParams - параметры для списков категорий и жанров.
type CatalogListParams struct {
	ListParams
	Search string // Подстрока имени (регистронезависимо)
}

// TitleListParams - параметры для списка произведений.
type TitleListParams struct {
	ListParams
	Genre    string // Слаг жанра
	Category string // Слаг категории
	Year     int
	Name     string // Подстрока названия (регистронезависимо)
}
