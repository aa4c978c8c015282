package supervisor

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/turtacn/Perennis/pkg/consts"
	"github.com/turtacn/Perennis/pkg/errors"
	"github.com/turtacn/Perennis/pkg/logger"
)

const backupTimeLayout = "20060102-150405"

// BackupName returns the archive file name for a backup taken at the current time.
func (pm *ProcessManager) BackupName(tag consts.BackupTag) string {
	return fmt.Sprintf("%s_%s_serverWorldSave.tgz", pm.opts.Now().Format(backupTimeLayout), tag)
}

// Backup archives the world directory into the backup directory and returns the
// archive path. Entries are stored relative to the world directory's parent.
// A failed or cancelled backup leaves no archive behind.
func (pm *ProcessManager) Backup(ctx context.Context, tag consts.BackupTag) (string, error) {
	if err := os.MkdirAll(pm.opts.BackupDir, 0o755); err != nil {
		return "", errors.New(errors.ErrCodeBackupFailed, "Backup", "cannot create backup dir", err)
	}

	dest := filepath.Join(pm.opts.BackupDir, pm.BackupName(tag))
	partial := dest + ".partial"

	logger.Log.Info("Supervisor: Backing up world", "tag", tag, "src", pm.opts.WorldDir, "dest", dest)
	if err := pm.writeArchive(ctx, partial); err != nil {
		os.Remove(partial)
		return "", errors.New(errors.ErrCodeBackupFailed, "Backup", "archive "+pm.opts.WorldDir, err)
	}
	if err := os.Rename(partial, dest); err != nil {
		os.Remove(partial)
		return "", errors.New(errors.ErrCodeBackupFailed, "Backup", "cannot finalize archive", err)
	}
	return dest, nil
}

func (pm *ProcessManager) writeArchive(ctx context.Context, path string) error {
	root := filepath.Clean(pm.opts.WorldDir)
	if info, err := os.Stat(root); err != nil {
		return err
	} else if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	zw, err := gzip.NewWriterLevel(f, gzip.DefaultCompression)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(zw)
	base := filepath.Dir(root)

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return addEntry(tw, base, p, d)
	})
	if err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return f.Sync()
}

func addEntry(tw *tar.Writer, base, p string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}

	var link string
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		if link, err = os.Readlink(p); err != nil {
			return err
		}
	case !info.Mode().IsRegular() && !info.IsDir():
		return nil // sockets, pipes and devices are not world data
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(base, p)
	if err != nil {
		return err
	}
	hdr.Name = filepath.ToSlash(rel)
	if info.IsDir() {
		hdr.Name += "/"
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	src, err := os.Open(p)
	if err != nil {
		return err
	}
	defer src.Close()
	_, err = io.Copy(tw, src)
	return err
}

// Personal.AI order the ending
