// model/borrow.go
package model

import "time"

// BorrowRecord is one borrow transaction. The record is active while
// ReturnedAt is unset; once set it is terminal. Returned records are kept
// as history and feed the recommendation engine.
type BorrowRecord struct {
	ID         int64      `json:"id"`
	BookID     int64      `json:"book_id"`
	MemberID   int64      `json:"member_id"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
}

func (r BorrowRecord) Active() bool { return r.ReturnedAt == nil }
