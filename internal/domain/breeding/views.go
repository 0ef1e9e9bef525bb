// internal/domain/breeding/views.go
package breeding

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BreedingView is the sweep projection of a breeding joined to its animal.
type BreedingView struct {
	EventID        uuid.UUID
	AnimalID       uuid.UUID
	AnimalTag      string
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	BreedingDate   time.Time
	Result         ResultState
	// ExpectedFarrowing is the date fixed on the farrowing record, if one exists.
	ExpectedFarrowing *time.Time
}

// Validate rejects rows the cycle engine cannot take.
func (v BreedingView) Validate() error {
	if v.EventID == uuid.Nil || v.UserID == uuid.Nil {
		return fmt.Errorf("breeding view %s: missing id or owner", v.EventID)
	}
	if v.BreedingDate.IsZero() {
		return fmt.Errorf("breeding view %s: missing breeding date", v.EventID)
	}
	return nil
}

// LitterMemberView is the sweep projection of a piglet joined to its sow.
// Date is the birth date for nursing piglets and the weaning date for weaned ones.
type LitterMemberView struct {
	PigletID       uuid.UUID
	SowID          uuid.UUID
	SowTag         string
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	Date           time.Time
}

// Validate rejects rows the cycle engine cannot take.
func (v LitterMemberView) Validate() error {
	if v.SowID == uuid.Nil || v.UserID == uuid.Nil {
		return fmt.Errorf("litter member %s: missing sow or owner", v.PigletID)
	}
	if v.Date.IsZero() {
		return fmt.Errorf("litter member %s: missing date", v.PigletID)
	}
	return nil
}

// SowLatest is the most recent litter date of one sow.
type SowLatest struct {
	SowID          uuid.UUID
	SowTag         string
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	Date           time.Time
}

// LatestPerSow collapses litter members to one entry per sow, keeping the
// maximum date. Output is ordered by first appearance of each sow.
func LatestPerSow(members []LitterMemberView) []SowLatest {
	index := make(map[uuid.UUID]int, len(members))
	out := make([]SowLatest, 0, len(members))
	for _, m := range members {
		if i, ok := index[m.SowID]; ok {
			if m.Date.After(out[i].Date) {
				out[i].Date = m.Date
			}
			continue
		}
		index[m.SowID] = len(out)
		out = append(out, SowLatest{
			SowID:          m.SowID,
			SowTag:         m.SowTag,
			OrganizationID: m.OrganizationID,
			UserID:         m.UserID,
			Date:           m.Date,
		})
	}
	return out
}
