package nodemap

import (
	"net/url"
	"strings"
)

// NormalizeGitHubURL reduces any of the four GitHub URL spellings found
// in the wild — https, https with .git, git@github.com: SSH shorthand,
// and ssh://git@github.com/ — to the single canonical form
// "https://github.com/<owner>/<repo>". Anything that doesn't parse as
// one of these is returned with only a trailing ".git" removed (not
// every repository field points at GitHub).
func NormalizeGitHubURL(raw string) string {
	if raw == "" {
		return ""
	}
	trimmed := strings.TrimSuffix(raw, ".git")

	const sshColon = "git@github.com:"
	if strings.HasPrefix(trimmed, sshColon) {
		return "https://github.com/" + strings.TrimSuffix(strings.TrimPrefix(trimmed, sshColon), ".git")
	}

	const sshScheme = "ssh://git@github.com/"
	if strings.HasPrefix(trimmed, sshScheme) {
		return "https://github.com/" + strings.TrimSuffix(strings.TrimPrefix(trimmed, sshScheme), ".git")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return trimmed
	}
	host := strings.ToLower(parsed.Hostname())
	if host != "github.com" && host != "www.github.com" {
		return trimmed
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 2 {
		return trimmed
	}
	owner, repo := parts[0], parts[1]
	return "https://github.com/" + owner + "/" + repo
}
