package domain

// Mail types understood by the mail worker.
const (
	MailTypeCreateUser    = "create_user"
	MailTypeWelcome       = "welcome"
	MailTypeResetPassword = "reset_password"
	MailTypeEntryDecision = "entry_decision"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type WelcomeMailData struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

type ResetPasswordMailData struct {
	Name       string `json:"name"`
	OTP        string `json:"otp"`
	Expiration int    `json:"expiration"`
}

type EntryDecisionMailData struct {
	Name      string      `json:"name"`
	EntryID   int64       `json:"entryId"`
	EntryType EntryType   `json:"entryType"`
	Status    EntryStatus `json:"status"`
	Summary   string      `json:"summary"`
}
