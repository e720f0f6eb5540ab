package accounts

type SignUpInput struct {
	Username string
	Email    string
	Password string
}

type SignInInput struct {
	Email    string
	Password string
}
