// Package emailsvc sends rendered core.EmailMessage values through the configured driver.
package emailsvc

import (
	"github.com/trezcool/studentsync/core"
)

const (
	DriverConsole  = "console"
	DriverSendgrid = "sendgrid"
	DriverSMTP     = "smtp"
)

// NewService picks the email driver from config. Unknown drivers print to the console.
func NewService(conf *core.Config, logger core.Logger) core.EmailService {
	switch conf.Email.Driver {
	case DriverSendgrid:
		return NewSendgridService(conf, logger)
	case DriverSMTP:
		return NewSMTPService(conf, logger)
	default:
		return NewConsoleService(conf, logger)
	}
}
