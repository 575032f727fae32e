package model

// BloodType is an ABO/Rh blood group, e.g. "O-", "AB+".
type BloodType string

// abo returns the ABO group without the Rh factor.
func (b BloodType) abo() string {
	s := string(b)
	if len(s) == 0 {
		return ""
	}
	last := s[len(s)-1]
	if last == '+' || last == '-' {
		return s[:len(s)-1]
	}
	return s
}

func (b BloodType) rhNegative() bool {
	s := string(b)
	return len(s) > 0 && s[len(s)-1] == '-'
}

// donorRecipients maps an ABO donor group to the recipient groups it can
// donate to.
var donorRecipients = map[string][]string{
	"O":  {"O", "A", "B", "AB"},
	"A":  {"A", "AB"},
	"B":  {"B", "AB"},
	"AB": {"AB"},
}

// CanDonateTo reports ABO/Rh compatibility from donor b to the recipient.
// Rh-negative donors are universal for their ABO group; Rh-positive donors
// require an Rh-positive recipient.
func (b BloodType) CanDonateTo(recipient BloodType) bool {
	if !b.rhNegative() && recipient.rhNegative() {
		return false
	}
	for _, g := range donorRecipients[b.abo()] {
		if g == recipient.abo() {
			return true
		}
	}
	return false
}
