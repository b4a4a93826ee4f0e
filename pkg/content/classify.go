package content

import (
	"newsrelay/pkg/models"
)

// Classifier turns one RawItem into zero or more candidate units.
// Rejection (too short, spam, oversized media, unknown kind) is not an
// error: it yields an empty list.
type Classifier interface {
	Classify(item models.RawItem) ([]models.CandidateUnit, error)
}

// KindClassifier is the default classifier: a pure function dispatching
// on the kind tag decided at the ingestion boundary.
type KindClassifier struct {
	Cleaner   Cleaner
	Formatter Formatter
	// MaxMediaBytes caps attachments; larger media items are rejected.
	MaxMediaBytes int64
}

func (k KindClassifier) Classify(item models.RawItem) ([]models.CandidateUnit, error) {
	switch item.Kind {
	case models.KindText:
		cleaned, ok := k.Cleaner.Clean(item.Payload)
		if !ok {
			return nil, nil
		}
		return []models.CandidateUnit{{
			Text:     cleaned,
			Rendered: k.Formatter.Format(cleaned),
			Class:    models.ClassFast,
		}}, nil
	case models.KindMedia:
		if k.MaxMediaBytes > 0 && item.MediaBytes > k.MaxMediaBytes {
			return nil, nil
		}
		cleaned, ok := k.Cleaner.Clean(item.Payload)
		if !ok {
			return nil, nil
		}
		// media goes to the slow class so large sends never hold up
		// small text items
		return []models.CandidateUnit{{
			Text:     cleaned,
			Rendered: k.Formatter.Format(cleaned),
			Class:    models.ClassSlow,
		}}, nil
	default:
		return nil, nil
	}
}
