// model/book.go
package model

type Book struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	ISBN     string `json:"isbn"`
	Category string `json:"category"`
}

// BookUpdate enumerates the mutable fields of a Book. Nil leaves the
// field unchanged.
type BookUpdate struct {
	Title    *string `json:"title,omitempty"`
	Author   *string `json:"author,omitempty"`
	ISBN     *string `json:"isbn,omitempty"`
	Category *string `json:"category,omitempty"`
}
