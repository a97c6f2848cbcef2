package intake

import (
	"time"

	"github.com/google/uuid"

	"github.com/Inreet-Kaur/capstone/internal/platform/extraction"
)

// Record sources.
const (
	SourceText  = "text"
	SourceAudio = "audio"
)

// IntakeRecord is one extracted encounter as stored in intake_record.
type IntakeRecord struct {
	ID              uuid.UUID                  `db:"id" json:"id"`
	Source          string                     `db:"source" json:"source"`
	Transcript      string                     `db:"transcript" json:"transcript"`
	Record          *extraction.ClinicalRecord `db:"record" json:"record"`
	PopulatedFields int                        `db:"populated_fields" json:"populated_fields"`
	CreatedBy       *string                    `db:"created_by" json:"created_by,omitempty"`
	CreatedAt       time.Time                  `db:"created_at" json:"created_at"`
}
