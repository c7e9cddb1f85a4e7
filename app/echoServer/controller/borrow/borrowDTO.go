package borrow

import "time"

type SetReturnDateReq struct {
	ReturnDate time.Time `json:"return_date" validate:"required"`
}
