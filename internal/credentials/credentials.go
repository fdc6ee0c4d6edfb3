// Package credentials resolves the login used to authenticate against the tracker.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrNotFound is returned by a Provider that has no credentials for a host.
// Chain treats it as "try the next provider"; any other error aborts resolution.
var ErrNotFound = errors.New("credentials not found")

// Credentials is a username/password pair for HTTP Basic authentication.
type Credentials struct {
	Username string
	Password string
}

// Provider resolves credentials for a host name (no port).
type Provider interface {
	Resolve(ctx context.Context, host string) (Credentials, error)
}

// Static always returns the same credentials.
type Static Credentials

// Resolve implements Provider.
func (s Static) Resolve(_ context.Context, _ string) (Credentials, error) {
	return Credentials(s), nil
}

// Default environment variables read by Env.
const (
	EnvUsername = "JIRA_USERNAME"
	EnvPassword = "JIRA_PASSWORD"
)

// Env reads credentials from environment variables. Both must be set.
type Env struct {
	UsernameVar string
	PasswordVar string
}

// Resolve implements Provider.
func (e Env) Resolve(_ context.Context, _ string) (Credentials, error) {
	userVar, passVar := e.UsernameVar, e.PasswordVar
	if userVar == "" {
		userVar = EnvUsername
	}
	if passVar == "" {
		passVar = EnvPassword
	}

	user, userOK := os.LookupEnv(userVar)
	pass, passOK := os.LookupEnv(passVar)
	if !userOK || !passOK || user == "" {
		return Credentials{}, ErrNotFound
	}
	return Credentials{Username: user, Password: pass}, nil
}

// Chain tries each provider in order and returns the first credentials found.
type Chain []Provider

// Resolve implements Provider.
func (c Chain) Resolve(ctx context.Context, host string) (Credentials, error) {
	for _, p := range c {
		creds, err := p.Resolve(ctx, host)
		if err == nil {
			return creds, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Credentials{}, err
		}
	}
	return Credentials{}, fmt.Errorf("no credentials for %s: %w", host, ErrNotFound)
}
