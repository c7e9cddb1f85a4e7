package echoServer

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	authctrl "librecords/app/echoServer/controller/auth"
	bookctrl "librecords/app/echoServer/controller/book"
	borrowctrl "librecords/app/echoServer/controller/borrow"
	logctrl "librecords/app/echoServer/controller/logs"
	memberctrl "librecords/app/echoServer/controller/member"
	recommendctrl "librecords/app/echoServer/controller/recommend"
	reviewctrl "librecords/app/echoServer/controller/review"
	"librecords/app/echoServer/jwtx"
)

type C struct {
	Auth      *authctrl.Controller
	Book      *bookctrl.Controller
	Member    *memberctrl.Controller
	Review    *reviewctrl.Controller
	Borrow    *borrowctrl.Controller
	Recommend *recommendctrl.Controller
	Logs      *logctrl.Controller
	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)

	// Auth
	auth := e.Group("/v1")
	auth.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(c.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization",
	}))
	auth.Use(identity)

	auth.GET("/users/me", c.Auth.Me)

	// Books
	auth.POST("/books", c.Book.Create)
	auth.GET("/books", c.Book.List)
	auth.GET("/books/:id", c.Book.Detail)
	auth.PUT("/books/:id", c.Book.Update)
	auth.DELETE("/books/:id", c.Book.Delete)
	auth.GET("/books/:id/borrowing-members", c.Borrow.BorrowingMembers)

	// Members
	auth.POST("/members", c.Member.Create)
	auth.GET("/members", c.Member.List)
	auth.GET("/members/:id", c.Member.Detail)
	auth.PUT("/members/:id", c.Member.Update)
	auth.DELETE("/members/:id", c.Member.Delete)
	auth.GET("/members/:id/borrowed-books", c.Borrow.BorrowedBooks)

	// Borrow / return
	auth.POST("/borrow/:book_id/:member_id", c.Borrow.Borrow)
	auth.POST("/return/:book_id/:member_id", c.Borrow.Return)

	// Borrow record administration
	auth.GET("/borrow-records", c.Borrow.ListRecords)
	auth.GET("/borrow-records/:id", c.Borrow.GetRecord)
	auth.PUT("/borrow-records/:id", c.Borrow.SetReturnDate)
	auth.DELETE("/borrow-records/:id", c.Borrow.DeleteRecord)

	// Reviews
	auth.POST("/reviews", c.Review.Create)
	auth.GET("/reviews", c.Review.List)
	auth.GET("/reviews/:id", c.Review.Detail)
	auth.PUT("/reviews/:id", c.Review.Update)
	auth.DELETE("/reviews/:id", c.Review.Delete)

	// Recommendations
	auth.GET("/recommend/:member_id", c.Recommend.ForMember)

	// Access logs
	auth.GET("/logs", c.Logs.List)
}

// identity copies the verified caller onto the context, the single place
// both route handlers and the request logger read it from.
func identity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, err := jwtx.UserIDFromContext(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
		}
		c.Set("user_id", uid)
		if username, err := jwtx.UsernameFromContext(c); err == nil {
			c.Set("username", username)
		}
		return next(c)
	}
}
