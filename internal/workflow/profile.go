package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/book-expert/logger"
	"github.com/book-expert/vridge/internal/core"
)

// Account is the session repository as the profile sees it.
type Account interface {
	GetUserInfo(ctx context.Context) (core.User, error)
	Unregister(ctx context.Context) bool
	SignOut()
}

// ProfileController shows the account and handles sign-out and deletion.
type ProfileController struct {
	account  Account
	reporter Reporter
	log      *logger.Logger

	mu        sync.Mutex
	state     State[core.User]
	loggedOut bool
}

// NewProfileController creates a ProfileController.
func NewProfileController(account Account, reporter Reporter, log *logger.Logger) *ProfileController {
	return &ProfileController{
		account:  account,
		reporter: reporter,
		log:      log,
		state:    Loading[core.User](),
	}
}

// Snapshot returns the current state.
func (c *ProfileController) Snapshot() State[core.User] {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// LoggedOut reports whether the user left the account.
func (c *ProfileController) LoggedOut() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.loggedOut
}

// Load fetches the account.
func (c *ProfileController) Load(ctx context.Context) error {
	user, err := c.account.GetUserInfo(ctx)

	c.mu.Lock()
	if err != nil {
		c.state = Empty[core.User]()
	} else {
		c.state = Success(user)
	}
	c.mu.Unlock()

	if err != nil {
		c.reporter.Report(err)

		return fmt.Errorf("failed to load profile: %w", err)
	}

	return nil
}

// SignOut forgets the identity.
func (c *ProfileController) SignOut() {
	c.account.SignOut()
	c.markLoggedOut()
}

// Unregister deletes the account. The user is only logged out when the
// server accepted the deletion.
func (c *ProfileController) Unregister(ctx context.Context) bool {
	if !c.account.Unregister(ctx) {
		c.log.Warn("Unregister was not accepted")

		return false
	}

	c.account.SignOut()
	c.markLoggedOut()

	return true
}

func (c *ProfileController) markLoggedOut() {
	c.mu.Lock()
	c.loggedOut = true
	c.state = Empty[core.User]()
	c.mu.Unlock()
}
