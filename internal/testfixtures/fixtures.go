package testfixtures

import (
	"time"

	"docket/pkg/config"
	"docket/pkg/logger"
	"docket/pkg/model"
)

func Logger() *logger.Logger {
	return logger.Discard()
}

// Config returns a configuration suitable for service tests.
func Config() *config.Config {
	return &config.Config{
		Log:                    Logger(),
		ReadTimeout:            5 * time.Second,
		WriteTimeout:           5 * time.Second,
		BookingLinkTTL:         config.DefaultBookingLinkTTL,
		ReservationLockBackend: config.LockBackendLocal,
		ReservationLockTTL:     config.DefaultReservationLockTTL,
		ReservationLockWait:    2 * time.Second,
		MaxSlotRangeDays:       config.DefaultMaxSlotRangeDays,
	}
}

// WeekdayTemplate is open 09:00-12:00 and 13:00-17:00 Monday to Friday.
func WeekdayTemplate(lawyerID, timeZone string) *model.Availability {
	weekly := make(map[model.Weekday]model.DaySchedule, len(model.Weekdays))
	for _, day := range model.Weekdays {
		weekly[day] = model.DaySchedule{Slots: []model.TimeSlot{}}
	}
	for _, day := range []model.Weekday{model.Monday, model.Tuesday, model.Wednesday, model.Thursday, model.Friday} {
		weekly[day] = model.DaySchedule{
			Enabled: true,
			Slots: []model.TimeSlot{
				{Start: "09:00", End: "12:00"},
				{Start: "13:00", End: "17:00"},
			},
		}
	}
	return &model.Availability{
		LawyerID: lawyerID,
		TimeZone: timeZone,
		Weekly:   weekly,
		Policy: model.BookingPolicy{
			MaxBookingDays:   60,
			AllowedDurations: []int{30, 60},
			BufferPlacement:  model.BufferBoth,
		},
	}
}
