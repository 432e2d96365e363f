package domain

import "time"

// SubjectType identifies who a token was issued to.
type SubjectType string

const (
	SubjectTypeOperator SubjectType = "OPERATOR"
)

// Operator is the single configured account allowed to read analytics.
type Operator struct {
	Username     string
	PasswordHash string
}

// Token describes an issued access token.
type Token struct {
	Value     string
	Subject   SubjectType
	SubjectID string
	ExpiresAt time.Time
}
