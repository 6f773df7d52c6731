package constants

import "time"

// Application constants
const (
	ApplicationName = "vroot"
	VendorDirectory = "vroot"
)

// Virtual namespace
const (
	// LocationSeparator terminates a canonical location id ("SD-CARD:").
	LocationSeparator = ':'
	RootPath          = "/"
	ReadOnlyMarker    = " (Read Only)"
	UnknownProduct    = "Unknown"
)

// Well-known labels
const (
	LabelUSB          = "USB-DEVICE"
	LabelOptical      = "DVD"
	LabelCard         = "SD-CARD"
	LabelGames        = "GAMES"
	LabelAlbum        = "ALBUM"
	LabelUser         = "USER"
	LabelSystem       = "SYSTEM"
	LabelSafe         = "SAFE"
	LabelFirmwareInfo = "PRODINFOF"
)

// Native identities reported by the sources
const (
	NativeCard        = "microSD card"
	NativeGames       = "games"
	NativeAlbum       = "Album"
	NativeUser        = "user"
	NativeSystem      = "system"
	NativeSafe        = "safe"
	NativeFirmware    = "PRODINFOF"
	MassStoragePrefix = "ums"
	OpticalPrefix     = "dvd"
)

// Location watcher constants
const (
	WatcherInterval   = 2 * time.Second
	WatcherBufferSize = 10
)

// Network share constants
const (
	SMBPort            = "445"
	DefaultDialTimeout = 5 * time.Second
	SecretServiceName  = "vroot.smb"
	PasswordEnvVar     = "VROOT_SMB_PASSWORD"
)

// Default discovery paths
const (
	DefaultMountInfoPath = "/proc/self/mountinfo"
	DefaultSysBlockPath  = "/sys/class/block"
)

// Configuration constants
const (
	ConfigFileName = "config.json"
)
