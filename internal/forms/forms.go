// Package forms validates the forum's HTML forms and keeps per-field errors
// so a rejected form can be shown again with its messages.
package forms

import (
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// NonFieldErrors is the Errors key for messages not tied to one field.
const NonFieldErrors = "__all__"

const (
	MaxUsernameLength = 150
	MaxEmailLength    = 254
	MinPasswordLength = 8
	MaxSubjectLength  = 255
	MaxMessageLength  = 4000

	MessageHelpText = "The max length of the text is 4000"
)

var usernameRx = regexp.MustCompile(`^[\w.@+-]+$`)

type Errors map[string][]string

func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Get returns the first message for a field, or "".
func (e Errors) Get(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

func (e Errors) Any() bool {
	return len(e) > 0
}

type SignUp struct {
	Username  string
	Email     string
	Password1 string
	Password2 string
	Errors    Errors
}

func NewSignUp(values url.Values) *SignUp {
	return &SignUp{
		Username:  strings.TrimSpace(values.Get("username")),
		Email:     strings.TrimSpace(values.Get("email")),
		Password1: values.Get("password1"),
		Password2: values.Get("password2"),
		Errors:    Errors{},
	}
}

func (f *SignUp) Validate() bool {
	if f.Errors == nil {
		f.Errors = Errors{}
	}
	switch {
	case f.Username == "":
		f.Errors.Add("username", "This field is required.")
	case utf8.RuneCountInString(f.Username) > MaxUsernameLength:
		f.Errors.Add("username", "Ensure this value has at most 150 characters.")
	case !usernameRx.MatchString(f.Username):
		f.Errors.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}

	switch {
	case f.Email == "":
		f.Errors.Add("email", "This field is required.")
	case len(f.Email) > MaxEmailLength:
		f.Errors.Add("email", "Ensure this value has at most 254 characters.")
	case !isValidEmail(f.Email):
		f.Errors.Add("email", "Enter a valid email address.")
	}

	switch {
	case f.Password1 == "":
		f.Errors.Add("password1", "This field is required.")
	case utf8.RuneCountInString(f.Password1) < MinPasswordLength:
		f.Errors.Add("password1", "This password is too short. It must contain at least 8 characters.")
	case isNumeric(f.Password1):
		f.Errors.Add("password1", "This password is entirely numeric.")
	}

	if f.Password2 == "" {
		f.Errors.Add("password2", "This field is required.")
	} else if f.Password1 != "" && f.Password1 != f.Password2 {
		f.Errors.Add("password2", "The two password fields didn't match.")
	}
	return !f.Errors.Any()
}

type Login struct {
	Username string
	Password string
	Next     string
	Errors   Errors
}

func NewLogin(values url.Values) *Login {
	return &Login{
		Username: strings.TrimSpace(values.Get("username")),
		Password: values.Get("password"),
		Next:     values.Get("next"),
		Errors:   Errors{},
	}
}

func (f *Login) Validate() bool {
	if f.Errors == nil {
		f.Errors = Errors{}
	}
	if f.Username == "" {
		f.Errors.Add("username", "This field is required.")
	}
	if f.Password == "" {
		f.Errors.Add("password", "This field is required.")
	}
	return !f.Errors.Any()
}

type NewTopic struct {
	Subject string
	Message string
	Errors  Errors
}

func NewNewTopic(values url.Values) *NewTopic {
	return &NewTopic{
		Subject: strings.TrimSpace(values.Get("subject")),
		Message: strings.TrimSpace(values.Get("message")),
		Errors:  Errors{},
	}
}

func (f *NewTopic) Validate() bool {
	if f.Errors == nil {
		f.Errors = Errors{}
	}
	switch {
	case f.Subject == "":
		f.Errors.Add("subject", "This field is required.")
	case utf8.RuneCountInString(f.Subject) > MaxSubjectLength:
		f.Errors.Add("subject", "Ensure this value has at most 255 characters.")
	}
	switch {
	case f.Message == "":
		f.Errors.Add("message", "This field is required.")
	case utf8.RuneCountInString(f.Message) > MaxMessageLength:
		f.Errors.Add("message", "Ensure this value has at most 4000 characters.")
	}
	return !f.Errors.Any()
}

// Reply is used both for new replies and for editing an existing post.
// Unlike a topic's opening message, a reply has no length limit.
type Reply struct {
	Message string
	Errors  Errors
}

func NewReply(values url.Values) *Reply {
	return &Reply{
		Message: strings.TrimSpace(values.Get("message")),
		Errors:  Errors{},
	}
}

func (f *Reply) Validate() bool {
	if f.Errors == nil {
		f.Errors = Errors{}
	}
	if f.Message == "" {
		f.Errors.Add("message", "This field is required.")
	}
	return !f.Errors.Any()
}

func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && strings.Contains(email[at+1:], ".")
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
