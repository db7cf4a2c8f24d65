package dynamo

// DynamoDB attribute names used in update expressions.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldAccountID  = "account_id"
	fieldSendWindow = "send_window"
	fieldPending    = "pending_verification"
	fieldVerified   = "verified"
	fieldVersion    = "version"
	fieldUpdatedAt  = "updated_at"
)
