package tracker

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rajveerkhosa/sscs/internal/common"
)

// backup copies the workbook into the backup directory under a name
// carrying the run date, then re-reads the copy to verify it matches the
// original byte for byte. The live workbook is never touched until a
// verified backup exists.
func (u *Updater) backup() (string, error) {
	src := u.cfg.Workbook
	base := filepath.Base(src)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)

	backupName := fmt.Sprintf("%s_%s%s", name, u.now().Format("2006-01-02"), ext)
	dst := filepath.Join(u.cfg.BackupDir, backupName)

	data, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("%w: reading workbook: %v", common.ErrBackupFailed, err)
	}

	if err := os.MkdirAll(u.cfg.BackupDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating backup directory: %v", common.ErrBackupFailed, err)
	}

	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: writing %s: %v", common.ErrBackupFailed, dst, err)
	}

	written, err := os.ReadFile(dst)
	if err != nil || !bytes.Equal(data, written) {
		return "", fmt.Errorf("%w: verification of %s failed", common.ErrBackupFailed, dst)
	}

	common.LogInfo("Backup created", common.Fields{
		"path":  dst,
		"bytes": len(data),
	})
	return dst, nil
}
