package model

import (
	"fmt"

	"github.com/google/uuid"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

// Owner identifies who a cart belongs to. Exactly one of UserID and
// SessionID is set.
type Owner struct {
	UserID    uuid.UUID `json:"userId,omitempty"`
	SessionID string    `json:"sessionId,omitempty"`
}

func UserOwner(userID uuid.UUID) Owner {
	return Owner{UserID: userID}
}

func GuestOwner(sessionID string) Owner {
	return Owner{SessionID: sessionID}
}

func (o Owner) IsGuest() bool {
	return o.UserID == uuid.Nil
}

func (o Owner) Validate() error {
	hasUser := o.UserID != uuid.Nil
	hasSession := o.SessionID != ""
	if hasUser == hasSession {
		return fmt.Errorf("failed validating owner userId=%s sessionId=%s with error=%w", o.UserID, o.SessionID, inErrors.ErrMissingOwner)
	}
	return nil
}

func (o Owner) String() string {
	if o.IsGuest() {
		return "session:" + o.SessionID
	}
	return "user:" + o.UserID.String()
}
