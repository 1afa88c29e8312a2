package email

import "strings"

// RedactEmail keeps the first character of the local part and the domain:
// "john@gmail.com" becomes "j***@gmail.com". Input without "@" is fully
// masked.
func RedactEmail(email string) string {
	if email == "" {
		return ""
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return "***"
	}
	if local == "" {
		return "***@" + domain
	}
	return local[:1] + "***@" + domain
}
