package sequencer

import (
	"github.com/0xPolygon/cdk-sequencer/config/types"
)

// ServiceStatus gates which transactions the sequencer accepts
type ServiceStatus string

const (
	// Active accepts every transaction
	Active ServiceStatus = "Active"
	// ReadOnly rejects every transaction
	ReadOnly ServiceStatus = "ReadOnly"
	// Maintenance rejects every transaction. Set automatically after a failed write.
	Maintenance ServiceStatus = "Maintenance"
	// DateImport only accepts data relayed from L1
	DateImport ServiceStatus = "DateImport"
)

func (s ServiceStatus) IsValid() bool {
	switch s {
	case Active, ReadOnly, Maintenance, DateImport:
		return true
	default:
		return false
	}
}

type Config struct {
	// KeyStore is the keystore file of the key signing the tx orders
	KeyStore types.KeystoreFileConfig `mapstructure:"KeyStore"`
	// ServiceStatus the sequencer starts with
	ServiceStatus ServiceStatus `mapstructure:"ServiceStatus" jsonschema:"enum=Active,enum=ReadOnly,enum=Maintenance,enum=DateImport"` //nolint:lll
	// MailboxSize is the number of requests that can wait for the sequencer
	MailboxSize int `mapstructure:"MailboxSize"`
}
