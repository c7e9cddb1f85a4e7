package review

type CreateReviewReq struct {
	BookID   int64   `json:"book_id" validate:"required,gt=0"`
	MemberID int64   `json:"member_id" validate:"required,gt=0"`
	Rating   float64 `json:"rating" validate:"gte=0,lte=5"`
	Comment  *string `json:"comment,omitempty"`
}

type UpdateReviewReq struct {
	Rating  *float64 `json:"rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	Comment *string  `json:"comment,omitempty"`
}
