// Package credentials keeps the signed-in user's token on disk and tells the
// rest of the client when the authentication state changes.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"focustimer/internal/persist"
)

const FileName = "credentials.yaml"

type fileState struct {
	Token    string    `yaml:"token"`
	UserID   string    `yaml:"user_id"`
	Email    string    `yaml:"email"`
	Username string    `yaml:"username"`
	SavedAt  time.Time `yaml:"saved_at"`
}

// Account identifies the signed-in user.
type Account struct {
	UserID   string
	Email    string
	Username string
}

type Provider struct {
	mu       sync.Mutex
	path     string
	state    fileState
	onLogin  []func(Account)
	onLogout []func()
}

// Open loads the credentials file in dir. A missing file means a guest.
func Open(dir string) (*Provider, error) {
	p := &Provider{path: filepath.Join(dir, FileName)}
	if _, err := persist.ReadYAML(p.path, &p.state); err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	return p, nil
}

func (p *Provider) Token() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Token
}

func (p *Provider) Authenticated() bool {
	return p.Token() != ""
}

func (p *Provider) Account() (Account, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Token == "" {
		return Account{}, false
	}
	return Account{UserID: p.state.UserID, Email: p.state.Email, Username: p.state.Username}, true
}

// OnLogin registers fn to run after every successful Login.
func (p *Provider) OnLogin(fn func(Account)) {
	p.mu.Lock()
	p.onLogin = append(p.onLogin, fn)
	p.mu.Unlock()
}

// OnLogout registers fn to run after every Logout that cleared a token.
func (p *Provider) OnLogout(fn func()) {
	p.mu.Lock()
	p.onLogout = append(p.onLogout, fn)
	p.mu.Unlock()
}

// Login stores token for account and then runs the login callbacks.
func (p *Provider) Login(token string, account Account) error {
	if token == "" {
		return errors.New("empty token")
	}

	p.mu.Lock()
	state := fileState{
		Token:    token,
		UserID:   account.UserID,
		Email:    account.Email,
		Username: account.Username,
		SavedAt:  time.Now().UTC(),
	}
	if err := persist.WriteYAML(p.path, state, 0o600); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("save credentials: %w", err)
	}
	p.state = state
	callbacks := append([]func(Account){}, p.onLogin...)
	p.mu.Unlock()

	for _, fn := range callbacks {
		fn(account)
	}
	return nil
}

// Logout forgets the token. It is safe to call when already signed out.
func (p *Provider) Logout() error {
	p.mu.Lock()
	if p.state.Token == "" {
		p.mu.Unlock()
		return nil
	}
	p.state = fileState{}
	err := os.Remove(p.path)
	if errors.Is(err, os.ErrNotExist) {
		err = nil
	}
	callbacks := append([]func(){}, p.onLogout...)
	p.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
	if err != nil {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}
