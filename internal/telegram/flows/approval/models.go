package approval

import "github.com/samber/lo"

type Outcome string

const (
	OutcomeApproved       Outcome = "approved"
	OutcomeDeclined       Outcome = "declined"
	OutcomeUnauthorized   Outcome = "unauthorized"
	OutcomeAlreadyDecided Outcome = "already_decided"
	OutcomeInvalid        Outcome = "invalid"
	OutcomeFailed         Outcome = "failed"
)

// Submission is a proof of payment sent by a user.
type Submission struct {
	UserID       int64
	ChatID       int64
	FullName     string
	Username     string
	LanguageCode string
	PhotoFileID  string
}

// MessageRef points at an admin-facing message that reflects a decision.
// Photo messages carry a caption instead of text and are edited differently.
type MessageRef struct {
	ChatID    int64
	MessageID int
	HasPhoto  bool
}

// Decision is an admin activating an approve or decline button.
type Decision struct {
	ActorID      int64
	CallbackID   string
	Data         string
	Message      MessageRef
	LanguageCode string
}

// DirectApproval is the /approve <user_id> [days] command.
type DirectApproval struct {
	ActorID      int64
	ChatID       int64
	Args         string
	LanguageCode string
}

// Delivery is the result of forwarding a proof to one admin.
type Delivery struct {
	AdminID   int64
	MessageID int
	Err       error
}

// FanOutReport lists per-admin outcomes of a submission.
type FanOutReport struct {
	RequestID  string
	Deliveries []Delivery
}

func (r *FanOutReport) Delivered() []Delivery {
	return lo.Filter(r.Deliveries, func(d Delivery, _ int) bool { return d.Err == nil })
}

func (r *FanOutReport) Failed() []Delivery {
	return lo.Filter(r.Deliveries, func(d Delivery, _ int) bool { return d.Err != nil })
}
