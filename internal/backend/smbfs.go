package backend

import (
	"context"
	"net"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/hirochachacha/go-smb2"
	"github.com/spf13/afero"

	"vroot/internal/constants"
)

// SMBFS is an afero.Fs over one SMB share. Every operation dials its own
// session; files keep theirs open until closed.
type SMBFS struct {
	host    string
	port    string
	share   string
	timeout time.Duration
	creds   *CredentialResolver
}

var _ afero.Fs = (*SMBFS)(nil)

// NewSMBFS returns a filesystem for //host/share. An empty port means 445.
func NewSMBFS(host, port, share string, timeout time.Duration, creds *CredentialResolver) *SMBFS {
	if port == "" {
		port = constants.SMBPort
	}
	if timeout <= 0 {
		timeout = constants.DefaultDialTimeout
	}
	if creds == nil {
		creds = NewCredentialResolver(nil, nil)
	}
	return &SMBFS{host: host, port: port, share: share, timeout: timeout, creds: creds}
}

type smbMount struct {
	conn  net.Conn
	sess  *smb2.Session
	share *smb2.Share
}

func (m *smbMount) close() {
	_ = m.share.Umount()
	_ = m.sess.Logoff()
	_ = m.conn.Close()
}

func (s *SMBFS) mount(ctx context.Context) (*smbMount, error) {
	creds := s.creds.Resolve(s.host, s.share)
	d := &smb2.Dialer{
		Initiator: &smb2.NTLMInitiator{
			User:     creds.Username,
			Password: creds.Password,
			Domain:   creds.Domain,
		},
	}

	dialer := net.Dialer{Timeout: s.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(s.host, s.port))
	if err != nil {
		return nil, err
	}

	sess, err := d.DialContext(ctx, conn)
	if err != nil {
		conn.Close()
		if isAuthError(err) {
			s.creds.Forget(s.host, s.share)
		}
		return nil, err
	}

	share, err := sess.Mount(s.share)
	if err != nil {
		_ = sess.Logoff()
		conn.Close()
		if isAuthError(err) {
			s.creds.Forget(s.host, s.share)
		}
		return nil, err
	}

	s.creds.Confirm(s.host, s.share, creds)
	return &smbMount{conn: conn, sess: sess, share: share}, nil
}

// with runs fn on a short-lived session.
func (s *SMBFS) with(fn func(sh *smb2.Share) error) error {
	m, err := s.mount(context.Background())
	if err != nil {
		return err
	}
	defer m.close()
	err = fn(m.share)
	if isAuthError(err) {
		s.creds.Forget(s.host, s.share)
	}
	return err
}

// sharePath converts a slash-rooted path to the share-relative form go-smb2
// accepts: no leading separator, "" for the share root.
func sharePath(p string) string {
	for len(p) > 0 && (p[0] == '/' || p[0] == '\\') {
		p = p[1:]
	}
	return p
}

// statPath is sharePath with the root spelled ".".
func statPath(p string) string {
	if p = sharePath(p); p == "" {
		return "."
	}
	return p
}

// Ping mounts and unmounts the share.
func (s *SMBFS) Ping(ctx context.Context) error {
	m, err := s.mount(ctx)
	if err != nil {
		return err
	}
	m.close()
	return nil
}

func (s *SMBFS) Name() string { return "smb://" + s.host + "/" + s.share }

func (s *SMBFS) Create(name string) (afero.File, error) {
	return s.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
}

func (s *SMBFS) Open(name string) (afero.File, error) {
	return s.OpenFile(name, os.O_RDONLY, 0)
}

func (s *SMBFS) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	m, err := s.mount(context.Background())
	if err != nil {
		return nil, err
	}
	f, err := m.share.OpenFile(statPath(name), flag, perm)
	if err != nil {
		m.close()
		if isAuthError(err) {
			s.creds.Forget(s.host, s.share)
		}
		return nil, err
	}
	return &smbFile{File: f, mount: m}, nil
}

func (s *SMBFS) Mkdir(name string, perm os.FileMode) error {
	return s.with(func(sh *smb2.Share) error { return sh.Mkdir(sharePath(name), perm) })
}

func (s *SMBFS) MkdirAll(name string, perm os.FileMode) error {
	if sharePath(name) == "" {
		return nil
	}
	return s.with(func(sh *smb2.Share) error { return sh.MkdirAll(sharePath(name), perm) })
}

func (s *SMBFS) Remove(name string) error {
	return s.with(func(sh *smb2.Share) error { return sh.Remove(sharePath(name)) })
}

func (s *SMBFS) RemoveAll(name string) error {
	return s.with(func(sh *smb2.Share) error { return sh.RemoveAll(sharePath(name)) })
}

func (s *SMBFS) Rename(oldname, newname string) error {
	return s.with(func(sh *smb2.Share) error { return sh.Rename(sharePath(oldname), sharePath(newname)) })
}

func (s *SMBFS) Stat(name string) (os.FileInfo, error) {
	var fi os.FileInfo
	err := s.with(func(sh *smb2.Share) (err error) {
		fi, err = sh.Stat(statPath(name))
		return err
	})
	return fi, err
}

func (s *SMBFS) Chmod(name string, mode os.FileMode) error {
	return s.with(func(sh *smb2.Share) error { return sh.Chmod(statPath(name), mode) })
}

func (s *SMBFS) Chown(name string, uid, gid int) error {
	return &os.PathError{Op: "chown", Path: name, Err: syscall.ENOTSUP}
}

func (s *SMBFS) Chtimes(name string, atime, mtime time.Time) error {
	return s.with(func(sh *smb2.Share) error { return sh.Chtimes(statPath(name), atime, mtime) })
}

func (s *SMBFS) Space(name string) (Space, error) {
	var sp Space
	err := s.with(func(sh *smb2.Share) error {
		info, err := sh.Statfs(statPath(name))
		if err != nil {
			return err
		}
		bs := info.BlockSize() * info.FragmentSize()
		if bs == 0 {
			bs = info.BlockSize()
		}
		sp = Space{
			Total:     info.TotalBlockCount() * bs,
			Free:      info.FreeBlockCount() * bs,
			Available: info.AvailableBlockCount() * bs,
			BlockSize: bs,
		}
		return nil
	})
	return sp, err
}

// smbFile holds the session its file was opened on.
type smbFile struct {
	*smb2.File
	mount *smbMount
}

func (f *smbFile) Close() error {
	err := f.File.Close()
	f.mount.close()
	return err
}

func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	e := strings.ToLower(err.Error())
	// Common indicators from Windows/SMB servers
	return strings.Contains(e, "logon is invalid") ||
		strings.Contains(e, "bad username") ||
		strings.Contains(e, "authentication") ||
		strings.Contains(e, "status_logon_failure") ||
		strings.Contains(e, "access is denied")
}
