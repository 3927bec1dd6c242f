package command

import "github.com/taskdeck/taskdeck-api/internal/models"

// Decision is the outcome of classifying a mutation batch
type Decision string

const (
	DecisionAutoApply            Decision = "auto_apply"
	DecisionRequiresConfirmation Decision = "requires_confirmation"
)

// DefaultConfirmationThreshold is the largest number of total changes a batch
// may carry and still auto-apply (deletions always gate regardless)
const DefaultConfirmationThreshold = 2

// Classifier decides whether a batch may be applied immediately or must be
// held behind an explicit user confirmation
type Classifier struct {
	// Threshold is the maximum TotalChanges that may auto-apply
	Threshold int
}

func NewClassifier(threshold int) Classifier {
	if threshold <= 0 {
		threshold = DefaultConfirmationThreshold
	}
	return Classifier{Threshold: threshold}
}

// Classify gates any batch containing a deletion, and any batch whose total
// change count exceeds the threshold. Everything else auto-applies, including
// an empty batch.
func (c Classifier) Classify(b *models.MutationBatch) Decision {
	if len(b.DeletedIDs) > 0 {
		return DecisionRequiresConfirmation
	}
	if b.TotalChanges() > c.Threshold {
		return DecisionRequiresConfirmation
	}
	return DecisionAutoApply
}
