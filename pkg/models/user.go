package models

// User is the account profile returned by /me/, /login/ and /edit/.
type User struct {
	ID       any    `json:"id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
}

// SignupInput is the body of POST /signup/.
type SignupInput struct {
	Username        string `json:"username"          validate:"required"`
	Email           string `json:"email"             validate:"required,email"`
	Phone           string `json:"phone,omitempty"   validate:"omitempty,numeric,max=10"`
	Password        string `json:"password"          validate:"required,min=6"`
	PasswordConfirm string `json:"password_confirm"  validate:"required,eqfield=Password"`
}

// LoginInput is the body of POST /login/.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is the response of POST /login/.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// AccountEdit is the body of PUT /edit/. Password fields are only sent when
// the user is changing the password.
type AccountEdit struct {
	Username        string `json:"username"                   validate:"required"`
	Email           string `json:"email"                      validate:"required,email"`
	Phone           string `json:"phone,omitempty"            validate:"omitempty,numeric,max=10"`
	Password        string `json:"password,omitempty"         validate:"omitempty,min=6"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required_with=Password,eqfield=Password"`
}
