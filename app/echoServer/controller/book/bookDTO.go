package book

type CreateBookReq struct {
	Title    string `json:"title" validate:"required"`
	Author   string `json:"author" validate:"required"`
	ISBN     string `json:"isbn" validate:"required"`
	Category string `json:"category" validate:"required"`
}

type UpdateBookReq struct {
	Title    *string `json:"title,omitempty"`
	Author   *string `json:"author,omitempty"`
	ISBN     *string `json:"isbn,omitempty"`
	Category *string `json:"category,omitempty"`
}
