package store

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

// newRandomID returns prefix-<suffix> where suffix is 8 chars of base32 (lowercase, no padding).
func newRandomID(prefix string) (string, error) {
	var b [5]byte // 40 bits -> 8 base32 chars
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	suffix := strings.ToLower(enc.EncodeToString(b[:]))
	return prefix + "-" + suffix, nil
}

func idExists(db *DB, id string) bool {
	if db == nil {
		return false
	}
	for _, u := range db.Users {
		if u.ID == id {
			return true
		}
	}
	for _, c := range db.Clients {
		if c.ID == id {
			return true
		}
	}
	for _, p := range db.Projects {
		if p.ID == id {
			return true
		}
	}
	for _, t := range db.Tasks {
		if t.ID == id {
			return true
		}
	}
	for _, l := range db.TimeLogs {
		if l.ID == id {
			return true
		}
	}
	return false
}
