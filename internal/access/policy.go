// Package access содержит правила авторизации в виде чистых предикатов
// над (действующее лицо, HTTP-метод, владелец ресурса). Предикаты не
// знают ни о транспорте, ни о хранилище и тестируются изолированно.
package access

import (
	"net/http"

	"github.com/code3452/api-yamdb/internal/domain"
)

// Actor - действующее лицо запроса. Заполняется middleware из токена и
// явно передается в каждый предикат: неявного "текущего пользователя"
// в системе нет.
type Actor struct {
	ID            string
	Username      string
	Role          string
	IsSuperuser   bool
	Authenticated bool
}

// Anonymous возвращает неаутентифицированное действующее лицо.
func Anonymous() Actor {
	return Actor{}
}

// IsSafeMethod сообщает, является ли HTTP-метод только читающим.
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// IsAdminOrSuperuser разрешает действие администратору или носителю
// флага superuser независимо от метода.
func IsAdminOrSuperuser(actor Actor) bool {
	return actor.Authenticated && (actor.Role == domain.RoleAdmin || actor.IsSuperuser)
}

// IsAdminOrReadOnly разрешает безопасные методы всем, небезопасные -
// только администратору или суперпользователю.
func IsAdminOrReadOnly(actor Actor, method string) bool {
	return IsSafeMethod(method) || IsAdminOrSuperuser(actor)
}

// IsAuthorOrModeratorOrAdminOrReadOnly разрешает безопасные методы всем,
// небезопасные - автору объекта, модератору, администратору или
// суперпользователю.
func IsAuthorOrModeratorOrAdminOrReadOnly(actor Actor, method, ownerID string) bool {
	if IsSafeMethod(method) {
		return true
	}
	if !actor.Authenticated {
		return false
	}
	return actor.ID == ownerID ||
		actor.Role == domain.RoleModerator ||
		actor.Role == domain.RoleAdmin ||
		actor.IsSuperuser
}

// ReadOnly разрешает только безопасные методы, безусловно.
func ReadOnly(method string) bool {
	return IsSafeMethod(method)
}
