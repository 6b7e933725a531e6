package constants

import "time"

const (
	AppName            = "habitchain"
	DefaultKeyringUser = "database-connection"
	// KeyringDatabase as the database setting reads the connection string from the OS keyring.
	KeyringDatabase    = "keyring"
	DefaultConfigDir   = "~/.config/habitchain"
	DefaultConfigPath  = "~/.config/habitchain/config.yaml"
	DefaultDBPath      = "~/.config/habitchain/habitchain.db"
	Version            = "v0.1.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "habitchain-"
	BackupFileSuffix = ".db"

	// Lock constants
	LockfileName    = "habitchain.lock"
	LockStaleAfter  = 12 * time.Hour
	LockRetryDelay  = 100 * time.Millisecond
	LockMaxAttempts = 3
)
