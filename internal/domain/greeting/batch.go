// internal/domain/greeting/batch.go
package greeting

// Batch is the set of people in one chat whose birthday is today.
// It only lives for the duration of a greeting cycle.
type Batch struct {
	ChatID int64
	Names  []string
}
