// model/member.go
package model

type Member struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	MembershipID string `json:"membership_id"`
}

type MemberUpdate struct {
	Name         *string `json:"name,omitempty"`
	Email        *string `json:"email,omitempty"`
	MembershipID *string `json:"membership_id,omitempty"`
}
