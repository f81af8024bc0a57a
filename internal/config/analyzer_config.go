// Package config defines the AnalyzerConfig domain type, the ConfigStore
// consumer interface, and the static bootstrap AppConfig loaded at boot
// (spec.md §3, §6, §10).
package config

import "time"

// Protocol identifies which wire protocol an analyzer speaks.
type Protocol string

const (
	ProtocolASTM     Protocol = "ASTM"
	ProtocolHL7v231  Protocol = "HL7_v2_3_1"
	ProtocolHL7v24   Protocol = "HL7_v2_4"
)

// Status is the lifecycle state of an analyzer service, per spec.md §3.
type Status string

const (
	StatusInactive    Status = "Inactive"
	StatusActive      Status = "Active"
	StatusMaintenance Status = "Maintenance"
)

// TransportKind distinguishes the two transport shapes spec.md §3 allows.
// This service only drives TcpListen; Serial is modeled so config storage
// and validation stay faithful to the full entity shape, per
// SPEC_FULL.md §4 (the teacher's serial driver package is adapted as
// reference material, not wired into the live transport path).
type TransportKind string

const (
	TransportTCP    TransportKind = "TcpListen"
	TransportSerial TransportKind = "Serial"
)

// Transport is a tagged union over TcpListen{host,port} and
// Serial{port,baud}.
type Transport struct {
	Kind TransportKind
	Host string
	Port int

	SerialPort string
	BaudRate   int
}

// AnalyzerConfig is the entity spec.md §3 defines. It is owned by the
// config store and cloned into an AnalyzerService at start.
type AnalyzerConfig struct {
	ID              string
	DisplayName     string
	Model           string
	Manufacturer    string
	Transport       Transport
	Protocol        Protocol
	ActivateOnStart bool
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Clone returns a deep copy safe to hand to a service start without
// sharing mutable state with the config store's copy.
func (c AnalyzerConfig) Clone() AnalyzerConfig {
	return c
}
