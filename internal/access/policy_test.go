package access

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/code3452/api-yamdb/internal/domain"
)

func actor(id, role string) Actor {
	return Actor{ID: id, Username: id, Role: role, Authenticated: true}
}

func TestIsSafeMethod(t *testing.T) {
	assert.True(t, IsSafeMethod(http.MethodGet))
	assert.True(t, IsSafeMethod(http.MethodHead))
	assert.True(t, IsSafeMethod(http.MethodOptions))
	assert.False(t, IsSafeMethod(http.MethodPost))
	assert.False(t, IsSafeMethod(http.MethodPatch))
	assert.False(t, IsSafeMethod(http.MethodDelete))
}

func TestIsAdminOrSuperuser(t *testing.T) {
	assert.True(t, IsAdminOrSuperuser(actor("a", domain.RoleAdmin)))
	assert.False(t, IsAdminOrSuperuser(actor("m", domain.RoleModerator)))
	assert.False(t, IsAdminOrSuperuser(actor("u", domain.RoleUser)))
	assert.False(t, IsAdminOrSuperuser(Anonymous()))

	// Флаг superuser дает права администратора при любой роли.
	super := actor("s", domain.RoleUser)
	super.IsSuperuser = true
	assert.True(t, IsAdminOrSuperuser(super))

	// Даже с флагом неаутентифицированное лицо бесправно.
	ghost := Actor{IsSuperuser: true}
	assert.False(t, IsAdminOrSuperuser(ghost))
}

func TestIsAdminOrReadOnly(t *testing.T) {
	assert.True(t, IsAdminOrReadOnly(Anonymous(), http.MethodGet))
	assert.False(t, IsAdminOrReadOnly(Anonymous(), http.MethodPost))
	assert.False(t, IsAdminOrReadOnly(actor("u", domain.RoleUser), http.MethodPost))
	assert.False(t, IsAdminOrReadOnly(actor("m", domain.RoleModerator), http.MethodDelete))
	assert.True(t, IsAdminOrReadOnly(actor("a", domain.RoleAdmin), http.MethodPost))
}

func TestIsAuthorOrModeratorOrAdminOrReadOnly(t *testing.T) {
	const ownerID = "owner-id"

	tests := []struct {
		name   string
		actor  Actor
		method string
		want   bool
	}{
		{"anonymous read", Anonymous(), http.MethodGet, true},
		{"anonymous write", Anonymous(), http.MethodPatch, false},
		{"owner write", actor(ownerID, domain.RoleUser), http.MethodPatch, true},
		{"stranger write", actor("stranger", domain.RoleUser), http.MethodPatch, false},
		{"stranger read", actor("stranger", domain.RoleUser), http.MethodGet, true},
		{"moderator write", actor("mod", domain.RoleModerator), http.MethodDelete, true},
		{"admin write", actor("adm", domain.RoleAdmin), http.MethodDelete, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsAuthorOrModeratorOrAdminOrReadOnly(tc.actor, tc.method, ownerID))
		})
	}

	super := actor("s", domain.RoleUser)
	super.IsSuperuser = true
	assert.True(t, IsAuthorOrModeratorOrAdminOrReadOnly(super, http.MethodDelete, ownerID))
}

func TestReadOnly(t *testing.T) {
	assert.True(t, ReadOnly(http.MethodGet))
	assert.False(t, ReadOnly(http.MethodPost))
}
