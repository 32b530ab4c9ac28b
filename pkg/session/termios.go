package session

import (
	"os"

	"golang.org/x/sys/unix"
)

// disableEcho clears the ECHO flag on the terminal so that lines written
// to the child do not come back in the output stream.
func disableEcho(f *os.File) error {
	fd := int(f.Fd())
	tio, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return err
	}
	tio.Lflag &^= unix.ECHO
	return unix.IoctlSetTermios(fd, ioctlWriteTermios, tio)
}
