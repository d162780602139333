package model

import "regexp"

var phoneRe = regexp.MustCompile(`^\+?[0-9 ().-]{7,20}$`)

// ValidPhone reports whether s looks like a dialable phone number.
func ValidPhone(s string) bool { return phoneRe.MatchString(s) }
