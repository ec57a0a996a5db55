package auth_test

import (
	"testing"

	"shortmark/internal/apperrors"
	"shortmark/internal/auth"

	"github.com/stretchr/testify/assert"
)

const ownerID = "owner-1"

var (
	ownerVerified   = auth.Principal{UserID: ownerID, IsVerified: true}
	ownerUnverified = auth.Principal{UserID: ownerID}
	admin           = auth.Principal{UserID: "admin-1", IsAdmin: true, IsVerified: true}
	adminUnverified = auth.Principal{UserID: "admin-2", IsAdmin: true}
	stranger        = auth.Principal{UserID: "user-2", IsVerified: true}
	anonymous       = auth.Anonymous
)

// allow 用空字符串表示
func TestCanAccess_Matrix(t *testing.T) {
	allow := apperrors.Kind("")
	principals := []struct {
		name string
		p    auth.Principal
		want map[auth.Action]apperrors.Kind
	}{
		{"owner-verified", ownerVerified, map[auth.Action]apperrors.Kind{
			auth.ActionCreate:      allow,
			auth.ActionReadOwn:     allow,
			auth.ActionReadAny:     apperrors.KindForbidden,
			auth.ActionUpdate:      allow,
			auth.ActionDelete:      allow,
			auth.ActionCheckExists: allow,
		}},
		{"owner-unverified", ownerUnverified, map[auth.Action]apperrors.Kind{
			auth.ActionCreate:      apperrors.KindNotVerified,
			auth.ActionReadOwn:     apperrors.KindForbidden,
			auth.ActionReadAny:     apperrors.KindForbidden,
			auth.ActionUpdate:      apperrors.KindForbidden,
			auth.ActionDelete:      apperrors.KindForbidden,
			auth.ActionCheckExists: apperrors.KindForbidden,
		}},
		{"non-owner-admin", admin, map[auth.Action]apperrors.Kind{
			auth.ActionCreate:      allow,
			auth.ActionReadOwn:     allow,
			auth.ActionReadAny:     allow,
			auth.ActionUpdate:      allow,
			auth.ActionDelete:      allow,
			auth.ActionCheckExists: allow,
		}},
		{"non-owner-admin-unverified", adminUnverified, map[auth.Action]apperrors.Kind{
			auth.ActionCreate:      apperrors.KindNotVerified,
			auth.ActionReadOwn:     allow,
			auth.ActionReadAny:     allow,
			auth.ActionUpdate:      allow,
			auth.ActionDelete:      allow,
			auth.ActionCheckExists: allow,
		}},
		{"non-owner-non-admin", stranger, map[auth.Action]apperrors.Kind{
			auth.ActionCreate:      allow,
			auth.ActionReadOwn:     apperrors.KindForbidden,
			auth.ActionReadAny:     apperrors.KindForbidden,
			auth.ActionUpdate:      apperrors.KindForbidden,
			auth.ActionDelete:      apperrors.KindForbidden,
			auth.ActionCheckExists: apperrors.KindForbidden,
		}},
		{"anonymous", anonymous, map[auth.Action]apperrors.Kind{
			auth.ActionCreate:      apperrors.KindNotRegistered,
			auth.ActionReadOwn:     apperrors.KindNotRegistered,
			auth.ActionReadAny:     apperrors.KindNotRegistered,
			auth.ActionUpdate:      apperrors.KindNotRegistered,
			auth.ActionDelete:      apperrors.KindNotRegistered,
			auth.ActionCheckExists: apperrors.KindNotRegistered,
		}},
	}

	for _, pc := range principals {
		for action, want := range pc.want {
			t.Run(pc.name+"/"+action.String(), func(t *testing.T) {
				err := auth.CanAccess(pc.p, action, ownerID, true)
				if want == allow {
					assert.NoError(t, err)
					return
				}
				kind, ok := apperrors.KindOf(err)
				assert.True(t, ok, "expected typed error, got %v", err)
				assert.Equal(t, want, kind)
			})
		}
	}
}

func TestCanAccess_MissingResource(t *testing.T) {
	for _, action := range []auth.Action{auth.ActionReadOwn, auth.ActionUpdate, auth.ActionDelete} {
		err := auth.CanAccess(stranger, action, "", false)
		assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound), action.String())

		err = auth.CanAccess(admin, action, "", false)
		assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound), action.String())
	}

	assert.NoError(t, auth.CanAccess(stranger, auth.ActionCheckExists, "", false))
	assert.NoError(t, auth.CanAccess(admin, auth.ActionCheckExists, "", false))
	assert.True(t, apperrors.IsKind(
		auth.CanAccess(ownerUnverified, auth.ActionCheckExists, "", false), apperrors.KindForbidden))
	assert.True(t, apperrors.IsKind(
		auth.CanAccess(anonymous, auth.ActionCheckExists, "", false), apperrors.KindNotRegistered))
}
