package credentials

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bgentry/go-netrc/netrc"
)

// Netrc looks credentials up in a netrc file. With an empty Path it uses $NETRC
// and then ~/.netrc; a missing default file is ErrNotFound, a missing explicit
// file is an error.
type Netrc struct {
	Path string
}

// Resolve implements Provider. The "default" entry is never used: only a
// machine entry naming the host counts.
func (n Netrc) Resolve(_ context.Context, host string) (Credentials, error) {
	path, explicit, err := n.location()
	if err != nil {
		return Credentials{}, err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return Credentials{}, ErrNotFound
		}
		return Credentials{}, fmt.Errorf("netrc file %s: %w", path, err)
	}

	rc, err := netrc.ParseFile(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to parse netrc file %s: %w", path, err)
	}

	machine := rc.FindMachine(host)
	if machine == nil || machine.IsDefault() {
		return Credentials{}, ErrNotFound
	}
	return Credentials{Username: machine.Login, Password: machine.Password}, nil
}

func (n Netrc) location() (path string, explicit bool, err error) {
	if n.Path != "" {
		return n.Path, true, nil
	}
	if env := os.Getenv("NETRC"); env != "" {
		return env, true, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".netrc"), false, nil
}
