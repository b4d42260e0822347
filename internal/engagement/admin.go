package engagement

import (
	"slices"
	"strconv"
	"strings"

	"github.com/sundayezeilo/engagebot/internal/chat"
)

// AdminList is the set of identities allowed to run reset and audit commands.
// An entry matches a user's numeric id or username exactly; a leading "@" on
// an entry is ignored.
type AdminList []string

// NewAdminList trims and de-duplicates entries, dropping blanks.
func NewAdminList(entries ...string) AdminList {
	out := make(AdminList, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimPrefix(strings.TrimSpace(e), "@")
		if e == "" || slices.Contains(out, e) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Allows reports whether u is on the list.
func (a AdminList) Allows(u chat.User) bool {
	id := strconv.FormatInt(u.ID, 10)
	for _, e := range a {
		if e == id && u.ID != 0 {
			return true
		}
		if u.Username != "" && e == u.Username {
			return true
		}
	}
	return false
}
