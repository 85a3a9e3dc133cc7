// Package validator checks the shape of contact-form submissions.
package validator

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jmehdipour/contact-site/internal/model"
	"github.com/jmehdipour/contact-site/internal/util"
)

const (
	MinNameLen    = 2
	MinServiceLen = 2
	MinMessageLen = 10
)

const (
	MsgName    = "Name must be at least 2 characters long"
	MsgEmail   = "Please provide a valid email address"
	MsgService = "Please specify the service you need"
	MsgMessage = "Message must be at least 10 characters long"
	MsgPhone   = "Please provide a valid phone number"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validate returns one message per failing field, in form order. Empty means valid.
func Validate(s model.Submission) []string {
	var errs []string

	if trimmedLen(s.Name) < MinNameLen {
		errs = append(errs, MsgName)
	}
	if !ValidEmail(s.Email) {
		errs = append(errs, MsgEmail)
	}
	if trimmedLen(s.Service) < MinServiceLen {
		errs = append(errs, MsgService)
	}
	if trimmedLen(s.Message) < MinMessageLen {
		errs = append(errs, MsgMessage)
	}
	if s.Phone != "" && !util.ValidPhone(s.Phone) {
		errs = append(errs, MsgPhone)
	}

	return errs
}

// ValidEmail is a loose local@domain.tld check, nothing more.
func ValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

func trimmedLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}
