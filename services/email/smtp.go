package emailsvc

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"net/mail"

	gomail "gopkg.in/mail.v2"

	"github.com/trezcool/studentsync/core"
)

type smtpService struct {
	conf       *core.Config
	sender     gomail.Sender
	dialer     *gomail.Dialer
	subjPrefix string
	logger     core.Logger
}

var _ core.EmailService = (*smtpService)(nil)

func NewSMTPService(conf *core.Config, logger core.Logger) *smtpService {
	return &smtpService{
		conf:       conf,
		dialer:     gomail.NewDialer(conf.Email.SMTPServer, conf.Email.SMTPPort, conf.Email.SMTPUser, conf.Email.SMTPPass),
		subjPrefix: "[" + conf.AppName + "] ",
		logger:     logger,
	}
}

// WithSender replaces the SMTP connection. Used in tests.
func (svc *smtpService) WithSender(s gomail.Sender) *smtpService {
	svc.sender = s
	return svc
}

func (svc *smtpService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		msg := msg
		go svc.sendMessage(msg)
	}
}

func (svc *smtpService) sendMessage(msg *core.EmailMessage) {
	if err := msg.Render(svc.conf); err != nil {
		svc.logger.Error(fmt.Sprintf("rendering email: %v", err), err)
		return
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return
	}

	m := svc.prepare(*msg)
	var err error
	if svc.sender != nil {
		err = gomail.Send(svc.sender, m)
	} else {
		err = svc.dialer.DialAndSend(m)
	}
	if err != nil {
		svc.logger.Error(fmt.Sprintf("sending email: %v", err), err)
	}
}

func (svc *smtpService) prepare(msg core.EmailMessage) *gomail.Message {
	from := svc.conf.DefaultFromEmail()

	m := gomail.NewMessage()
	m.SetAddressHeader("From", from.Address, from.Name)
	m.SetHeader("To", formatAddresses(m, msg.To)...)
	if len(msg.Cc) > 0 {
		m.SetHeader("Cc", formatAddresses(m, msg.Cc)...)
	}
	if len(msg.Bcc) > 0 {
		m.SetHeader("Bcc", formatAddresses(m, msg.Bcc)...)
	}
	m.SetHeader("Subject", svc.subjPrefix+msg.Subject)

	m.SetBody("text/plain", msg.TextContent)
	if msg.HTMLContent != "" {
		m.AddAlternative("text/html", msg.HTMLContent)
	}

	for _, at := range msg.Attachments {
		at := at
		m.Attach(at.Filename,
			gomail.SetHeader(map[string][]string{"Content-Type": {at.ContentType}}),
			gomail.SetCopyFunc(func(w io.Writer) error {
				// attachments are stored base64 encoded; gomail encodes again on write
				_, err := io.Copy(w, base64.NewDecoder(base64.StdEncoding, bytes.NewReader(at.Content.Bytes())))
				return err
			}),
		)
	}
	return m
}

func formatAddresses(m *gomail.Message, addrs []mail.Address) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, m.FormatAddress(a.Address, a.Name))
	}
	return out
}
