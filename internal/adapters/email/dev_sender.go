package email

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/stockdeck/stockdeck/internal/ports"
)

// DevSender writes recovery emails to disk instead of sending them.
// It keeps local development working without provider credentials while
// preserving the contract that the code leaves only through this gateway.
type DevSender struct {
	dir string
}

var _ ports.MailSender = (*DevSender)(nil)

func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir}
}

func (d *DevSender) SendRecoveryCode(_ context.Context, address, code string) error {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("create mail dir: %w", err)
	}
	name := fmt.Sprintf("%s_recovery.html", time.Now().UTC().Format("2006_01_02_150405.000"))
	path := filepath.Join(d.dir, name)
	body := fmt.Sprintf("<!-- to: %s -->\n%s", address, recoveryBodyHTML(code))
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write mail file: %w", err)
	}
	return nil
}
