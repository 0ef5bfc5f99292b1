package idempotency

// Status values for idempotency entries
const (
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
)

// Record is the shape persisted in the idempotency DynamoDB table. The
// table's TTL attribute is "expiration" (epoch seconds); expired entries are
// garbage-collected by DynamoDB, never by this package.
type Record struct {
	ID           string `dynamodbav:"id"` // PK: the idempotency token
	Status       string `dynamodbav:"status"`
	ResponseBody string `dynamodbav:"data,omitempty"` // serialized result replayed to duplicates
	CreatedAt    string `dynamodbav:"created_at"`     // RFC3339
	Expiration   int64  `dynamodbav:"expiration"`
}
