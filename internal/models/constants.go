package models

const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
)

const (
	ActionBooked    = "booked"
	ActionCancelled = "cancelled"
)

const (
	// DefaultDailyCapacity количество мест на один день
	DefaultDailyCapacity = 6

	// DefaultWindowWeeks сколько недель показывает календарь
	DefaultWindowWeeks = 2

	// DeviceInfoMaxLen максимальная длина device_info в журнале
	DeviceInfoMaxLen = 90

	// DefaultDeviceInfo подставляется, если клиент не прислал deviceInfo
	DefaultDeviceInfo = "Web App"

	DefaultActivityLimit = 10
	MaxActivityLimit     = 100

	// DayNameLayout формат подписи дня в календаре
	DayNameLayout = "Mon, Jan 2"
)
