package model

// Submission is one contact-form payload from a visitor.
type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Service string `json:"service"`
	Message string `json:"message"`
}

// PhoneOrDefault is what the mail shows when the visitor left phone blank.
func (s Submission) PhoneOrDefault() string {
	if s.Phone == "" {
		return "Not provided"
	}
	return s.Phone
}
