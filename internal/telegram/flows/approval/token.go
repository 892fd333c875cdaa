package approval

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type Action string

const (
	ActionApprove Action = "approve"
	ActionDecline Action = "decline"
)

// callback_data is limited to 64 bytes by Telegram.
const maxCallbackDataLen = 64

// Token correlates an admin button with the submission it was created for.
// Wire format: "action:user_id:request_id"; the legacy "action:user_id"
// form is still accepted.
type Token struct {
	Action    Action
	UserID    int64
	RequestID string
}

func NewRequestID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

func (t Token) String() string {
	s := string(t.Action) + ":" + strconv.FormatInt(t.UserID, 10)
	if t.RequestID != "" {
		s += ":" + t.RequestID
	}
	return s
}

// Key identifies the approval request the token belongs to. Approve and
// decline tokens of one submission share a key.
func (t Token) Key() string {
	if t.RequestID != "" {
		return "req:" + t.RequestID
	}
	return "user:" + strconv.FormatInt(t.UserID, 10)
}

// IsToken reports whether callback data looks like an approval token.
func IsToken(data string) bool {
	return strings.HasPrefix(data, string(ActionApprove)+":") ||
		strings.HasPrefix(data, string(ActionDecline)+":")
}

func ParseToken(data string) (Token, error) {
	if len(data) > maxCallbackDataLen {
		return Token{}, errors.Wrapf(ErrValidation, "token longer than %d bytes", maxCallbackDataLen)
	}

	parts := strings.Split(data, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Token{}, errors.Wrapf(ErrValidation, "malformed token %q", data)
	}

	action := Action(parts[0])
	if action != ActionApprove && action != ActionDecline {
		return Token{}, errors.Wrapf(ErrValidation, "unknown action %q", parts[0])
	}

	userID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || userID <= 0 {
		return Token{}, errors.Wrapf(ErrValidation, "invalid user id %q", parts[1])
	}

	t := Token{Action: action, UserID: userID}
	if len(parts) == 3 {
		if parts[2] == "" {
			return Token{}, errors.Wrapf(ErrValidation, "empty request id in %q", data)
		}
		t.RequestID = parts[2]
	}

	return t, nil
}
