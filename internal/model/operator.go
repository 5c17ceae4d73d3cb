package model

// Operator is the authenticated person driving a workbench session.
type Operator struct {
	Subject string
	Name    string
}

func (o Operator) IsAnonymous() bool {
	return o.Subject == ""
}
