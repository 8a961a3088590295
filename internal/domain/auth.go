package domain

// SubjectType differentiates customer vs admin tokens.
type SubjectType string

const (
	SubjectTypeCustomer SubjectType = "CUSTOMER"
	SubjectTypeAdmin    SubjectType = "ADMIN"
)
