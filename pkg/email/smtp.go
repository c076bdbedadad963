package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"nexulsly-backend/config"

	"github.com/google/uuid"
)

const smtpDialTimeout = 10 * time.Second

// SMTPSender handles sending emails via SMTP
type SMTPSender struct {
	host     string
	port     string
	username string
	password string
	secure   bool
	from     mail.Address
	now      func() time.Time
}

// NewSMTPSender creates a sender from the SMTP settings. Missing credentials are an error.
func NewSMTPSender(cfg *config.Config) (*SMTPSender, error) {
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("%w: SMTP host is required", ErrInvalidConfig)
	}
	if cfg.SMTPUser == "" || cfg.SMTPPassword == "" {
		return nil, fmt.Errorf("%w: SMTP user and password are required", ErrInvalidConfig)
	}
	if cfg.FromEmail == "" {
		return nil, fmt.Errorf("%w: from address is required", ErrInvalidConfig)
	}

	return &SMTPSender{
		host:     cfg.SMTPHost,
		port:     strconv.Itoa(cfg.SMTPPort),
		username: cfg.SMTPUser,
		password: cfg.SMTPPassword,
		secure:   cfg.SMTPSecure,
		from:     mail.Address{Name: cfg.FromName, Address: cfg.FromEmail},
		now:      time.Now,
	}, nil
}

// Send delivers msg in a single SMTP transaction with one RCPT per recipient.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	raw, err := s.buildMessage(msg)
	if err != nil {
		return fmt.Errorf("%w: failed to build message: %v", ErrFailedToSendEmail, err)
	}

	client, stop, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer stop()
	defer client.Close()

	if err := client.Mail(s.from.Address); err != nil {
		return fmt.Errorf("%w: MAIL FROM: %v", ErrFailedToSendEmail, err)
	}
	for _, rcpt := range msg.To {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("%w: RCPT TO %s: %v", ErrFailedToSendEmail, rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("%w: DATA: %v", ErrFailedToSendEmail, err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("%w: write body: %v", ErrFailedToSendEmail, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: end of data: %v", ErrFailedToSendEmail, err)
	}

	return client.Quit()
}

// Verify connects and authenticates without sending anything.
func (s *SMTPSender) Verify(ctx context.Context) error {
	client, stop, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer stop()
	defer client.Close()
	return client.Quit()
}

// dial opens the connection, upgrades to TLS and authenticates. The connection
// is closed when ctx is done so a stuck server cannot hold a request.
func (s *SMTPSender) dial(ctx context.Context) (*smtp.Client, func() bool, error) {
	addr := net.JoinHostPort(s.host, s.port)
	tlsConfig := &tls.Config{ServerName: s.host, MinVersion: tls.VersionTLS12}
	dialer := &net.Dialer{Timeout: smtpDialTimeout}

	var conn net.Conn
	var err error
	if s.secure {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: dial %s: %v", ErrFailedToSendEmail, addr, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		stop()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("%w: handshake: %v", ErrFailedToSendEmail, err)
	}

	if !s.secure {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				stop()
				_ = client.Close()
				return nil, nil, fmt.Errorf("%w: STARTTLS: %v", ErrFailedToSendEmail, err)
			}
		}
	}

	// Credentials are mandatory, so a server without AUTH is refused rather than used anonymously
	if ok, _ := client.Extension("AUTH"); !ok {
		stop()
		_ = client.Close()
		return nil, nil, fmt.Errorf("%w: server %s does not offer AUTH", ErrFailedToSendEmail, addr)
	}
	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	if err := client.Auth(auth); err != nil {
		stop()
		_ = client.Close()
		return nil, nil, fmt.Errorf("%w: auth: %v", ErrFailedToSendEmail, err)
	}

	return client, stop, nil
}

// buildMessage renders headers plus a multipart/alternative body.
func (s *SMTPSender) buildMessage(msg Message) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if msg.Text != "" {
		if err := writeQuotedPart(mw, "text/plain; charset=UTF-8", msg.Text); err != nil {
			return nil, err
		}
	}
	if err := writeQuotedPart(mw, "text/html; charset=UTF-8", msg.HTML); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	to := make([]string, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, (&mail.Address{Address: addr}).String())
	}

	var out bytes.Buffer
	writeHeader(&out, "From", s.from.String())
	writeHeader(&out, "To", strings.Join(to, ", "))
	if msg.ReplyTo != "" {
		writeHeader(&out, "Reply-To", (&mail.Address{Address: msg.ReplyTo}).String())
	}
	writeHeader(&out, "Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	writeHeader(&out, "Date", s.now().Format(time.RFC1123Z))
	writeHeader(&out, "Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), domainOf(s.from.Address)))
	writeHeader(&out, "MIME-Version", "1.0")
	writeHeader(&out, "Content-Type", "multipart/alternative; boundary="+mw.Boundary())
	out.WriteString("\r\n")
	out.Write(body.Bytes())

	return out.Bytes(), nil
}

func writeQuotedPart(mw *multipart.Writer, contentType, content string) error {
	header := textproto.MIMEHeader{}
	header.Set("Content-Type", contentType)
	header.Set("Content-Transfer-Encoding", "quoted-printable")

	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(content)); err != nil {
		return err
	}
	return qp.Close()
}

// writeHeader drops CR and LF from values so user input cannot add headers.
func writeHeader(buf *bytes.Buffer, key, value string) {
	value = strings.NewReplacer("\r", "", "\n", "").Replace(value)
	buf.WriteString(key)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}

func domainOf(addr string) string {
	if i := strings.LastIndexByte(addr, '@'); i >= 0 && i < len(addr)-1 {
		return addr[i+1:]
	}
	return "localhost"
}
