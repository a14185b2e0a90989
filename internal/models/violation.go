package models

import "time"

type ViolationType string

const (
	ViolationTabSwitch      ViolationType = "tab_switch"
	ViolationCopyPaste      ViolationType = "copy_paste"
	ViolationRightClick     ViolationType = "right_click"
	ViolationFullscreenExit ViolationType = "fullscreen_exit"
	ViolationWebcamOff      ViolationType = "webcam_off"

	// ViolationContactCreator is not an anti-cheat event; it marks a
	// re-attempt request filed without an originating attempt.
	ViolationContactCreator ViolationType = "contact_creator"
)

type ViolationSeverity string

const (
	SeverityMedium ViolationSeverity = "medium"
	SeverityHigh   ViolationSeverity = "high"
)

// ViolationThreshold is the number of recorded violations at which an
// in-progress attempt is forcibly submitted.
const ViolationThreshold = 3

type AttemptViolation struct {
	ID        uint              `json:"id" gorm:"primaryKey"`
	AttemptID uint              `json:"attempt_id" gorm:"not null;index"`
	Type      ViolationType     `json:"type" gorm:"not null;index" validate:"required,violation_type"`
	Detail    *string           `json:"detail" gorm:"type:text"`
	Severity  ViolationSeverity `json:"severity" gorm:"not null"`
	CreatedAt time.Time         `json:"created_at"`
}

// SeverityFor derives severity from the violation type.
func SeverityFor(t ViolationType) ViolationSeverity {
	if t == ViolationTabSwitch {
		return SeverityHigh
	}
	return SeverityMedium
}

func (AttemptViolation) TableName() string {
	return "attempt_violations"
}
