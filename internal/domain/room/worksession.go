package room

import (
	"fmt"
	"time"

	"huddle/internal/shared/biztime"
)

// WorkCategory buckets a finished work session's duration for display.
type WorkCategory string

const (
	WorkCategoryHalf     WorkCategory = "half"
	WorkCategoryFull     WorkCategory = "full"
	WorkCategoryOvertime WorkCategory = "overtime"
)

// WorkSession brackets the time an identity spends in a room: opened on
// join, closed on quit or disconnect. The duration math depends on precise
// timestamps at both ends of the live connection, which is why closing it is
// part of the disconnect path rather than a batch job.
type WorkSession struct {
	ID           uint
	UserSID      string
	RoomSID      string
	LoginTime    time.Time
	LogoutTime   *time.Time
	TotalMinutes *int
	Category     *WorkCategory
}

// NewWorkSession opens a work session starting now.
func NewWorkSession(userSID, roomSID string) (*WorkSession, error) {
	if userSID == "" || roomSID == "" {
		return nil, fmt.Errorf("user and room are required")
	}
	return &WorkSession{
		UserSID:   userSID,
		RoomSID:   roomSID,
		LoginTime: biztime.NowUTC(),
	}, nil
}

// Open reports whether the session has not been finalized yet.
func (w *WorkSession) Open() bool {
	return w.LogoutTime == nil
}

// Close finalizes the session at the given logout time and returns the
// computed report.
func (w *WorkSession) Close(logoutTime time.Time) WorkReport {
	report := CalculateWorkTime(w.LoginTime, logoutTime)
	w.LogoutTime = &logoutTime
	w.TotalMinutes = &report.TotalMinutes
	w.Category = &report.Category
	return report
}

// WorkReport is the display-facing summary of a finished work session.
type WorkReport struct {
	TotalMinutes int
	Category     WorkCategory
	DisplayText  string
}

// CalculateWorkTime buckets a session duration: under 4 hours is a half day,
// 4 to 8 hours a full day, beyond 8 hours shows as 8h plus overtime.
func CalculateWorkTime(loginTime, logoutTime time.Time) WorkReport {
	totalMinutes := biztime.MinutesBetween(loginTime, logoutTime)
	if totalMinutes < 0 {
		totalMinutes = 0
	}
	hours := totalMinutes / 60

	switch {
	case totalMinutes < 4*60:
		return WorkReport{
			TotalMinutes: totalMinutes,
			Category:     WorkCategoryHalf,
			DisplayText:  fmt.Sprintf("%dh %dm (Half Day)", hours, totalMinutes%60),
		}
	case totalMinutes <= 8*60:
		return WorkReport{
			TotalMinutes: totalMinutes,
			Category:     WorkCategoryFull,
			DisplayText:  fmt.Sprintf("%dh %dm (Full Day)", hours, totalMinutes%60),
		}
	default:
		overtime := totalMinutes - 8*60
		return WorkReport{
			TotalMinutes: totalMinutes,
			Category:     WorkCategoryOvertime,
			DisplayText:  fmt.Sprintf("8h + %dh %dm OT", overtime/60, overtime%60),
		}
	}
}
