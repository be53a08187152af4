// Package policy holds the pure access predicates the platform's permission
// layer consults for lottery threads. Every function is a pure function of
// its arguments; callers pass explicit state snapshots, never globals.
package policy

import (
	"fmt"

	"github.com/commboard/lottery-engine/internal/models"
)

// Role is the requester's role relative to the platform, as supplied by the
// external identity service.
type Role string

const (
	RoleStaff  Role = "staff"
	RoleMember Role = "member"
)

// CanPost reports whether a requester may post in a lottery thread.
// During draft only the owner and staff may post; once the lottery is
// active the registration period is open to everyone. Ended lotteries keep
// the thread open for discussion of the results.
func CanPost(state models.LotteryState, role Role, isOwner bool) bool {
	switch state {
	case models.LotteryStateDraft:
		return isOwner || role == RoleStaff
	case models.LotteryStateActive, models.LotteryStateEnded:
		return true
	default:
		return false
	}
}

// CanEdit reports whether a requester may edit the lottery's own fields.
// Only drafts are editable, and only by the owner or staff.
func CanEdit(state models.LotteryState, role Role, isOwner bool) bool {
	return state == models.LotteryStateDraft && (isOwner || role == RoleStaff)
}

// CanEndEarly reports whether a requester may trigger the end-transition
// before the deadline.
func CanEndEarly(state models.LotteryState, role Role, isOwner bool) bool {
	return state == models.LotteryStateActive && (isOwner || role == RoleStaff)
}

// IsLotteryThread reports whether a thread's category is the one designated
// for lotteries. Threads in other categories keep default platform
// permissions and are never passed through these predicates.
func IsLotteryThread(threadCategoryID, lotteryCategoryID string) bool {
	return lotteryCategoryID != "" && threadCategoryID == lotteryCategoryID
}

// ValidateCategoryChange enforces that a lottery-bound thread never changes
// category after creation. The returned error message is user-visible.
func ValidateCategoryChange(currentCategoryID, proposedCategoryID string, hasLottery bool) error {
	if !hasLottery {
		return nil
	}
	if currentCategoryID != proposedCategoryID {
		return fmt.Errorf("the category of a lottery thread cannot be changed")
	}
	return nil
}
