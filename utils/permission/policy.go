// Package permission holds the action-keyed authorization table. Each
// guarded operation maps to a predicate over the caller's role and their
// relationship to the resource, instead of a hierarchy of permission
// types. Unknown actions are denied.
package permission

import (
	"github.com/Tg-307/Project---1-Campus-Connect/model"
)

// Action identifies a guarded operation.
type Action string

const (
	ListingUpdate      Action = "listing.update"
	ListingDelete      Action = "listing.delete"
	ListingUploadImage Action = "listing.upload_image"

	IssueAdminUpdate Action = "issue.admin_update"

	OrderView     Action = "order.view"
	OrderAccept   Action = "order.accept"
	OrderReject   Action = "order.reject"
	OrderComplete Action = "order.complete"
	OrderCancel   Action = "order.cancel"

	NotificationMarkRead Action = "notification.mark_read"
)

// Subject is the acting identity as resolved by the auth middleware.
type Subject struct {
	UserID uint
	Role   model.Role
}

// Resource carries the ownership facts a predicate may inspect. Fields
// that do not apply to a resource type stay zero.
type Resource struct {
	OwnerID  uint // listing owner, issue creator, notification recipient
	BuyerID  uint
	SellerID uint
}

// Predicate decides whether a subject may perform an action on a resource.
type Predicate func(sub Subject, res Resource) bool

func isOwner(sub Subject, res Resource) bool {
	return sub.UserID != 0 && sub.UserID == res.OwnerID
}

func isBuyer(sub Subject, res Resource) bool {
	return sub.UserID != 0 && sub.UserID == res.BuyerID
}

func isSeller(sub Subject, res Resource) bool {
	return sub.UserID != 0 && sub.UserID == res.SellerID
}

func hasRole(roles ...model.Role) Predicate {
	return func(sub Subject, _ Resource) bool {
		for _, r := range roles {
			if sub.Role == r {
				return true
			}
		}
		return false
	}
}

func anyOf(preds ...Predicate) Predicate {
	return func(sub Subject, res Resource) bool {
		for _, p := range preds {
			if p(sub, res) {
				return true
			}
		}
		return false
	}
}

// policies is the authorization table. Seller and buyer rights differ by
// order action, so these are keyed per action rather than collapsed into
// a single ownership rule.
var policies = map[Action]Predicate{
	ListingUpdate:      isOwner,
	ListingDelete:      isOwner,
	ListingUploadImage: isOwner,

	IssueAdminUpdate: hasRole(model.RoleFaculty, model.RoleStaff),

	OrderView:     anyOf(isBuyer, isSeller),
	OrderAccept:   isSeller,
	OrderReject:   isSeller,
	OrderComplete: isSeller,
	OrderCancel:   isBuyer,

	NotificationMarkRead: isOwner,
}

// Allowed reports whether sub may perform action on res.
func Allowed(action Action, sub Subject, res Resource) bool {
	pred, ok := policies[action]
	if !ok {
		return false
	}
	return pred(sub, res)
}
