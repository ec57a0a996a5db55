package auth

import "shortmark/internal/apperrors"

// Principal 是经过认证的调用方，零值表示匿名
type Principal struct {
	UserID     string
	IsAdmin    bool
	IsVerified bool
}

// Anonymous 未登录的调用方
var Anonymous = Principal{}

func (p Principal) IsRegistered() bool {
	return p.UserID != ""
}

// Action 对短链（及书签）可执行的操作
type Action int

const (
	ActionCreate Action = iota
	ActionReadOwn
	ActionReadAny
	ActionUpdate
	ActionDelete
	ActionCheckExists
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionReadOwn:
		return "readOwn"
	case ActionReadAny:
		return "readAny"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	case ActionCheckExists:
		return "checkExists"
	default:
		return "unknown"
	}
}

// CanAccess decides whether p may perform action on a resource owned by
// ownerID. It returns nil to allow, otherwise a typed *apperrors.AppError.
//
// Rules, first match wins:
//   - no user id: NotRegistered, for every action;
//   - create: the principal must be verified (NotVerified);
//   - readAny: admins only (Forbidden);
//   - resource actions: a missing resource is NotFound, except checkExists
//     which reports absence to admins and verified users; admins are
//     allowed; verified owners are allowed; everyone else is Forbidden.
func CanAccess(p Principal, action Action, ownerID string, exists bool) error {
	if !p.IsRegistered() {
		return apperrors.NotRegistered()
	}

	switch action {
	case ActionCreate:
		if !p.IsVerified {
			return apperrors.NotVerified()
		}
		return nil
	case ActionReadAny:
		if !p.IsAdmin {
			return apperrors.Forbidden()
		}
		return nil
	case ActionReadOwn, ActionUpdate, ActionDelete, ActionCheckExists:
		if !exists {
			if action == ActionCheckExists && (p.IsAdmin || p.IsVerified) {
				return nil
			}
			if action == ActionCheckExists {
				return apperrors.Forbidden()
			}
			return apperrors.NotFound("")
		}
		if p.IsAdmin {
			return nil
		}
		if p.IsVerified && p.UserID == ownerID {
			return nil
		}
		return apperrors.Forbidden()
	default:
		return apperrors.Forbidden()
	}
}
