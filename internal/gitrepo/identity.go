package gitrepo

import (
	"context"
	"fmt"
	"os"
	"os/user"
)

const defaultIdentityName = "comfygit"
const defaultIdentityEmail = "user@comfygit.local"

// EnsureIdentity configures a local (repository-scoped, not global)
// user.name/user.email if either is unset, so commits never fail for lack
// of an identity on a freshly provisioned machine. The fallback chain
// prefers GIT_AUTHOR_NAME/EMAIL, then the OS account, then a fixed
// default — never the global git config, so comfygit never silently
// claims someone else's configured identity for its automated commits.
func (r *Repo) EnsureIdentity(ctx context.Context) error {
	name, _ := r.run(ctx, "config", "--local", "user.name")
	email, _ := r.run(ctx, "config", "--local", "user.email")
	if name != "" && email != "" {
		return nil
	}
	if name == "" {
		name = identityName()
		if _, err := r.run(ctx, "config", "--local", "user.name", name); err != nil {
			return err
		}
	}
	if email == "" {
		email = identityEmail()
		if _, err := r.run(ctx, "config", "--local", "user.email", email); err != nil {
			return err
		}
	}
	return nil
}

func identityName() string {
	if v := os.Getenv("GIT_AUTHOR_NAME"); v != "" {
		return v
	}
	if u, err := user.Current(); err == nil {
		if u.Name != "" {
			return u.Name
		}
		if u.Username != "" {
			return u.Username
		}
	}
	return defaultIdentityName
}

func identityEmail() string {
	if v := os.Getenv("GIT_AUTHOR_EMAIL"); v != "" {
		return v
	}
	u, uErr := user.Current()
	hostname, hErr := os.Hostname()
	if uErr == nil && hErr == nil && u.Username != "" && hostname != "" {
		return fmt.Sprintf("%s@%s", u.Username, hostname)
	}
	return defaultIdentityEmail
}
