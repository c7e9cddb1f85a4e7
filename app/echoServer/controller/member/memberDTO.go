package member

type CreateMemberReq struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	MembershipID string `json:"membership_id" validate:"required"`
}

type UpdateMemberReq struct {
	Name         *string `json:"name,omitempty"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
	MembershipID *string `json:"membership_id,omitempty"`
}
