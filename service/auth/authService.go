package authsvc

import (
	"context"
	"errors"
	"strings"

	"librecords/model"
	"librecords/util/database"
	"librecords/util/hash"
	jwtutil "librecords/util/jwt"
)

type ErrCode string

const (
	ErrUsernameTaken ErrCode = "USERNAME_TAKEN"
	ErrInvalidCreds  ErrCode = "INVALID_CREDENTIALS"
	ErrBadInput      ErrCode = "BAD_INPUT"
	ErrNotFound      ErrCode = "NOT_FOUND"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Repo interface {
	Create(ctx context.Context, u *model.User) error
	ByUsername(ctx context.Context, username string) (*model.User, error)
	ByID(ctx context.Context, id int64) (*model.User, error)
}

type Service interface {
	Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error)
	Login(ctx context.Context, req model.LoginReq) (*model.User, string, error)
	Me(ctx context.Context, userID int64) (*model.User, error)
}

type service struct {
	r        Repo
	secret   string
	tokenTTL int
}

func New(r Repo, secret string, tokenTTLHours int) Service {
	return &service{r: r, secret: secret, tokenTTL: tokenTTLHours}
}

func (s *service) Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || len(req.Password) < 6 {
		return nil, "", makeErr(ErrBadInput)
	}

	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	u := &model.User{Username: username, PasswordHash: hashed}
	if err := s.r.Create(ctx, u); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, "", makeErr(ErrUsernameTaken)
		}
		return nil, "", err
	}

	token, err := jwtutil.Issue(s.secret, u.ID, u.Username, s.tokenTTL)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) Login(ctx context.Context, req model.LoginReq) (*model.User, string, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, "", makeErr(ErrBadInput)
	}

	u, err := s.r.ByUsername(ctx, username)
	if err != nil {
		return nil, "", err
	}
	if u == nil || !hash.Check(u.PasswordHash, req.Password) {
		return nil, "", makeErr(ErrInvalidCreds)
	}

	token, err := jwtutil.Issue(s.secret, u.ID, u.Username, s.tokenTTL)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) Me(ctx context.Context, userID int64) (*model.User, error) {
	u, err := s.r.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, makeErr(ErrNotFound)
	}
	return u, nil
}
