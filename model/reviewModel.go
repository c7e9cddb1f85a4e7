// model/review.go
package model

type Review struct {
	ID       int64   `json:"id"`
	BookID   int64   `json:"book_id"`
	MemberID int64   `json:"member_id"`
	Rating   float64 `json:"rating"`
	Comment  *string `json:"comment,omitempty"`
}

type ReviewUpdate struct {
	Rating  *float64 `json:"rating,omitempty"`
	Comment *string  `json:"comment,omitempty"`
}
