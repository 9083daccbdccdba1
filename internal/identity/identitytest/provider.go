// Package identitytest provides an in-memory identity.Provider.
package identitytest

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/tribithub/portal/backend/internal/identity"
	"github.com/tribithub/portal/backend/internal/models"
)

type account struct {
	identity models.Identity
	password string
}

// Provider is a concurrency-safe fake. Tokens are registered explicitly
// with AddToken or minted by SignIn.
type Provider struct {
	mu       sync.Mutex
	accounts map[string]*account // by lowercase email
	tokens   map[string]string   // token -> user id
	nextID   int

	// Err, when set, is returned by every call.
	Err error
}

func New() *Provider {
	return &Provider{accounts: map[string]*account{}, tokens: map[string]string{}}
}

// AddUser registers an account and returns its identity.
func (p *Provider) AddUser(id, email, username, password string) models.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	ident := models.Identity{ID: id, Email: email, Username: username}
	p.accounts[strings.ToLower(email)] = &account{identity: ident, password: password}
	return ident
}

// AddToken makes token resolve to userID.
func (p *Provider) AddToken(token, userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens[token] = userID
}

// Password returns the current password of email, for assertions.
func (p *Provider) Password(email string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if a, ok := p.accounts[strings.ToLower(email)]; ok {
		return a.password
	}
	return ""
}

func (p *Provider) byID(id string) *account {
	for _, a := range p.accounts {
		if a.identity.ID == id {
			return a
		}
	}
	return nil
}

func (p *Provider) FindUserByEmail(_ context.Context, email string) (*models.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	a, ok := p.accounts[strings.ToLower(email)]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	ident := a.identity
	return &ident, nil
}

func (p *Provider) ListUsers(_ context.Context, ids []string) ([]models.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	var out []models.Identity
	for _, id := range ids {
		if a := p.byID(id); a != nil {
			out = append(out, a.identity)
		}
	}
	return out, nil
}

func (p *Provider) CreateUser(_ context.Context, email, password, username string) (*models.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	key := strings.ToLower(email)
	if _, ok := p.accounts[key]; ok {
		return nil, identity.ErrUserExists
	}
	p.nextID++
	ident := models.Identity{ID: fmt.Sprintf("user-%d", p.nextID), Email: email, Username: username}
	p.accounts[key] = &account{identity: ident, password: password}
	return &ident, nil
}

func (p *Provider) UpdatePassword(_ context.Context, email, password string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	a, ok := p.accounts[strings.ToLower(email)]
	if !ok {
		return identity.ErrUserNotFound
	}
	a.password = password
	return nil
}

func (p *Provider) SignIn(_ context.Context, email, password string) (*models.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	a, ok := p.accounts[strings.ToLower(email)]
	if !ok || a.password != password {
		return nil, identity.ErrInvalidCredentials
	}
	token := fmt.Sprintf("token-%s-%d", a.identity.ID, len(p.tokens)+1)
	p.tokens[token] = a.identity.ID
	ident := a.identity
	return &models.Session{AccessToken: token, TokenType: "bearer", ExpiresIn: 3600, User: &ident}, nil
}

func (p *Provider) Resolve(_ context.Context, token string) (*models.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	id, ok := p.tokens[token]
	if !ok {
		return nil, identity.ErrInvalidToken
	}
	a := p.byID(id)
	if a == nil {
		return nil, identity.ErrInvalidToken
	}
	ident := a.identity
	return &ident, nil
}

func (p *Provider) SignOut(_ context.Context, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.tokens[token]; !ok {
		return identity.ErrInvalidToken
	}
	delete(p.tokens, token)
	return nil
}

// MagicLink returns a fake verify URL that encodes email and redirectTo.
func (p *Provider) MagicLink(_ context.Context, email, redirectTo string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return "", p.Err
	}
	if _, ok := p.accounts[strings.ToLower(email)]; !ok {
		return "", identity.ErrUserNotFound
	}
	q := url.Values{"email": {email}, "redirect_to": {redirectTo}}
	return "https://auth.test/verify?" + q.Encode(), nil
}
