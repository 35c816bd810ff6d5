package authflowrepo

import "time"

// AuthFlowState tracks an OTP login between the code request and its verification.
type AuthFlowState struct {
	Email       string
	ReturnURL   string
	RequestedAt time.Time
	Requests    int
}

type Repo interface {
	Upsert(email string, authState *AuthFlowState) error
	Get(email string) (*AuthFlowState, error)
	Delete(email string) error
}
