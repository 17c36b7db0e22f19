//go:build linux

package alsa

import (
	"syscall"
	"unsafe"
)

// ioctl performs a generic ioctl syscall.
func ioctl(fd uintptr, req uintptr, arg uintptr) error {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, fd, req, arg)
	if errno != 0 {
		return errno
	}

	return nil
}

const (
	iocNrbits    = 8
	iocTypebits  = 8
	iocSizebits  = 14
	iocNrshift   = 0
	iocTypeshift = iocNrshift + iocNrbits
	iocSizeshift = iocTypeshift + iocTypebits
	iocDirshift  = iocSizeshift + iocSizebits

	iocNone  = 0
	iocWrite = 1
	iocRead  = 2
)

// ioc builds an ioctl request code from its direction, type, number and argument size.
func ioc(dir, typ, nr, size uintptr) uintptr {
	return (dir << iocDirshift) | (typ << iocTypeshift) | (nr << iocNrshift) | (size << iocSizeshift)
}

// PCM ioctl request codes ('A' for ALSA).
var (
	SNDRV_PCM_IOCTL_INFO          = ioc(iocRead, 'A', 0x01, unsafe.Sizeof(sndPcmInfo{}))
	SNDRV_PCM_IOCTL_HW_REFINE     = ioc(iocRead|iocWrite, 'A', 0x10, unsafe.Sizeof(sndPcmHwParams{}))
	SNDRV_PCM_IOCTL_HW_PARAMS     = ioc(iocRead|iocWrite, 'A', 0x11, unsafe.Sizeof(sndPcmHwParams{}))
	SNDRV_PCM_IOCTL_HW_FREE       = ioc(iocNone, 'A', 0x12, 0)
	SNDRV_PCM_IOCTL_SW_PARAMS     = ioc(iocRead|iocWrite, 'A', 0x13, unsafe.Sizeof(sndPcmSwParams{}))
	SNDRV_PCM_IOCTL_PREPARE       = ioc(iocNone, 'A', 0x40, 0)
	SNDRV_PCM_IOCTL_DROP          = ioc(iocNone, 'A', 0x43, 0)
	SNDRV_PCM_IOCTL_DRAIN         = ioc(iocNone, 'A', 0x44, 0)
	SNDRV_PCM_IOCTL_WRITEI_FRAMES = ioc(iocWrite, 'A', 0x50, unsafe.Sizeof(sndXferi{}))
)
