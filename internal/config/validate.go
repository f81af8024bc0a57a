package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validatableConfig mirrors AnalyzerConfig with validator struct tags,
// per spec.md §6's command-surface validation rules. Kept distinct from
// AnalyzerConfig itself so the wire/storage type stays free of
// validation-library annotations, matching the separation
// marmos91-dittofs/pkg/config/config.go draws between its plain Config
// struct and validator-tagged fields.
type validatableConfig struct {
	ID              string `validate:"required"`
	Protocol        string `validate:"required,oneof=ASTM HL7_v2_3_1 HL7_v2_4"`
	Port            int    `validate:"omitempty,min=1,max=65535"`
	TimeoutMs       int    `validate:"omitempty,gt=0,lte=300000"`
	RetryAttempts   int    `validate:"omitempty,lte=10"`
	Encoding        string `validate:"omitempty,oneof=UTF-8 ASCII"`
}

var validate = validator.New()

// ValidateConfig implements spec.md §6's update_config validation: ID is
// required; protocol must be ASTM, HL7_v2_3_1 or HL7_v2_4; the transport
// kind must be TcpListen or Serial; a TCP host that looks like an IP
// literal must parse; a TCP port must be in [1, 65535]; timeout_ms in
// (0, 300000]; retry_attempts <= 10; encoding in {UTF-8, ASCII}; each
// supported HL7 message type must contain '^'. A zero timeout_ms or
// retry_attempts and an empty encoding count as not supplied and are not
// checked. No state is mutated; a non-nil error means reject.
func ValidateConfig(cfg AnalyzerConfig, timeoutMs, retryAttempts int, encoding string, supportedHL7Types []string) error {
	v := validatableConfig{
		ID:            cfg.ID,
		Protocol:      string(cfg.Protocol),
		TimeoutMs:     timeoutMs,
		RetryAttempts: retryAttempts,
		Encoding:      encoding,
	}
	if cfg.Transport.Kind == TransportTCP {
		v.Port = cfg.Transport.Port
		if v.Port == 0 {
			return fmt.Errorf("invalid analyzer config: port is required for a TcpListen transport")
		}
	}

	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("invalid analyzer config: %w", err)
	}

	if err := validateProtocolFamily(cfg); err != nil {
		return err
	}

	if cfg.Transport.Kind == TransportTCP && cfg.Transport.Host != "" {
		if net.ParseIP(cfg.Transport.Host) == nil {
			// Hostnames (not just literal IPs) are also accepted;
			// net.ParseIP fails for those, so only reject when the value
			// looks like a dotted/colon address and still fails to parse.
			if looksLikeIPLiteral(cfg.Transport.Host) {
				return fmt.Errorf("invalid analyzer config: host %q is not a valid IP", cfg.Transport.Host)
			}
		}
	}

	for _, msgType := range supportedHL7Types {
		if !strings.Contains(msgType, "^") {
			return fmt.Errorf("invalid analyzer config: HL7 message type %q must contain '^'", msgType)
		}
	}

	return nil
}

// validateProtocolFamily rejects a Transport.Kind other than TcpListen or
// Serial. It does not compare the transport with the protocol: ASTM and
// HL7 analyzers are each accepted on either kind.
func validateProtocolFamily(cfg AnalyzerConfig) error {
	switch cfg.Transport.Kind {
	case TransportTCP, TransportSerial:
		return nil
	default:
		return fmt.Errorf("invalid analyzer config: unknown transport kind %q", cfg.Transport.Kind)
	}
}

func looksLikeIPLiteral(host string) bool {
	return strings.ContainsAny(host, "0123456789:") && !strings.ContainsAny(host, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
}
