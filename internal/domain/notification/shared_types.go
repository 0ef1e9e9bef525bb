// internal/domain/notification/shared_types.go
package notification

import (
	"fmt"

	"github.com/google/uuid"
)

// Type identifies the milestone a reminder is about.
type Type string

const (
	TypeFarrowingAlert   Type = "farrowing_alert"
	TypeWeaningReminder  Type = "weaning_reminder"
	TypeBreedingReminder Type = "breeding_reminder"
	TypePregnancyCheck   Type = "pregnancy_check"
)

// AllTypes lists the reminder types in sweep order.
var AllTypes = []Type{TypeFarrowingAlert, TypeWeaningReminder, TypeBreedingReminder, TypePregnancyCheck}

// BreedingKey is the dedup key (and action URL) of reminders about one breeding event.
func BreedingKey(eventID uuid.UUID) string {
	return fmt.Sprintf("/breeding/%s", eventID)
}

// SowKey is the dedup key (and action URL) of reminders about one sow.
func SowKey(sowID uuid.UUID) string {
	return fmt.Sprintf("/animals/%s", sowID)
}
