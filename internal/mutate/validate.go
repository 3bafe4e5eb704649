package mutate

import (
	"net/mail"
	"strings"
	"time"

	"sheetdesk/internal/store"
)

const dateLayout = "2006-01-02"

// NormalizeDue trims s and checks it is a calendar date. "" means no due date.
func NormalizeDue(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return "", ErrInvalidDue
	}
	return s, nil
}

func normalizeEmail(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", ErrInvalidEmail
	}
	return s, nil
}

// normalizeUserIDs trims, drops blanks and duplicates (keeping first-seen order)
// and checks every id names a user.
func normalizeUserIDs(db *store.DB, ids []string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		if _, ok := db.FindUser(id); !ok {
			return nil, NotFoundError{Kind: "user", ID: id}
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

// sameIDs compares id lists as sets; order carries no meaning.
func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	in := make(map[string]bool, len(a))
	for _, id := range a {
		in[id] = true
	}
	for _, id := range b {
		if !in[id] {
			return false
		}
	}
	return true
}
