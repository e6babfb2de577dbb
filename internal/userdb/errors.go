package userdb

import "fmt"

type (
	UserNotFound struct {
		Username string
	}

	// UserNotReady marks a row whose insert hooks have not finished;
	// the account exists but cannot authenticate yet.
	UserNotReady struct {
		Username string
	}

	UsernameTaken struct {
		Username string
	}
)

func (u UserNotFound) Error() string {
	return fmt.Sprintf("user %v not found", u.Username)
}

func (u UserNotReady) Error() string {
	return fmt.Sprintf("user %v is not finalized yet", u.Username)
}

func (u UsernameTaken) Error() string {
	return fmt.Sprintf("username %v is already taken", u.Username)
}
